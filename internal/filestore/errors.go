package filestore

import "errors"

var (
	// ErrEmptyContent is returned by Write when given empty content.
	// Empty writes are rejected so a malformed tool call cannot blank a file.
	ErrEmptyContent = errors.New("content is empty")

	// ErrNotFound is returned when a path has no file.
	ErrNotFound = errors.New("file not found")

	// ErrConflict is returned by Rename when the destination already exists.
	ErrConflict = errors.New("destination path already exists")

	// ErrBadRange is returned by ReplaceLines for an out-of-bounds or
	// inverted line range.
	ErrBadRange = errors.New("line range out of bounds")
)

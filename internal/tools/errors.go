package tools

import "errors"

// Error codes carried in Result.Error. The model keys its self-correction
// on these strings, so they are part of the dispatch contract.
const (
	ErrorUnknownTool      = "unknown_tool"
	ErrorInvalidArguments = "invalid_arguments"
)

var (
	// ErrDuplicateTool is returned when registering a name twice.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrInvalidTool is returned when a tool definition is malformed.
	ErrInvalidTool = errors.New("invalid tool definition")
)

// Package app provides the tool handlers that operate on one app's file
// store: file mutation, search, dependency management, and delegation to
// external image and web-search services.
package app

import (
	"context"

	"appforge/internal/filestore"
	"appforge/internal/progress"
	"appforge/internal/tracker"
)

// ImageGenerator produces file content for a generated image.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// WebSearcher runs a web search and returns a text summary of results.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Env carries the collaborators the handlers act on. One Env serves one
// orchestration run.
type Env struct {
	Store       *filestore.Store
	Tracker     *tracker.Tracker
	Broadcaster progress.Broadcaster

	// Images and Search are optional; the matching tools fail with a
	// descriptive result when unset.
	Images ImageGenerator
	Search WebSearcher

	// SearchMaxResults caps search_files output. Zero means uncapped.
	SearchMaxResults int
}

// Package tools maps tool names to handlers with typed argument contracts
// and dispatches model-issued calls against them.
package tools

import (
	"context"

	"appforge/internal/progress"
)

// HandlerFunc executes one tool call. A returned error becomes a failed
// result fed back to the model, never a panic or an aborted run.
type HandlerFunc func(ctx context.Context, args map[string]any) (*Output, error)

// Property describes one argument in a tool's schema.
type Property struct {
	Type        string `json:"type"` // string, integer, number, boolean, object, array
	Description string `json:"description,omitempty"`
}

// Schema is the argument contract of a tool.
type Schema struct {
	Required   []string            `json:"required,omitempty"`
	Properties map[string]Property `json:"properties"`
}

// Tool is one registered operation.
type Tool struct {
	Name        string
	Description string
	Schema      Schema
	// Mutates marks tools that change the file store. Used to decide
	// whether a run needs a version snapshot.
	Mutates bool
	Execute HandlerFunc
}

// Call is one tool invocation requested by the model in a turn. Ephemeral;
// not persisted beyond the turn that processes it.
type Call struct {
	// ID is the provider-assigned call identifier, used to pair results
	// back to calls on providers that require it. May be empty.
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Index     int            `json:"index"`
}

// Output is what a handler produces on success.
type Output struct {
	// Data is returned to the model as the tool result payload.
	Data any
	// Deltas lists the file mutations the handler performed, in order.
	Deltas []progress.FileDelta
}

// Result pairs one Call with its outcome, fed back to the model as the next
// turn's context. Every Result corresponds to exactly one Call of the same
// turn.
type Result struct {
	ToolCallIndex int                  `json:"tool_call_index"`
	Success       bool                 `json:"success"`
	Data          any                  `json:"data,omitempty"`
	Error         string               `json:"error,omitempty"`
	Deltas        []progress.FileDelta `json:"-"`
}

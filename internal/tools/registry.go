package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"appforge/internal/logging"
)

// Registry holds the registered tools and dispatches calls to them.
// Definitions are validated at registration time, not at call time.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. The definition is checked once here so dispatch can
// trust it: a name, a handler, and schema-consistent required fields.
func (r *Registry) Register(t *Tool) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTool)
	}
	if t.Execute == nil {
		return fmt.Errorf("%w: %s has no handler", ErrInvalidTool, t.Name)
	}
	for _, req := range t.Schema.Required {
		if _, ok := t.Schema.Properties[req]; !ok {
			return fmt.Errorf("%w: %s requires undeclared field %q", ErrInvalidTool, t.Name, req)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
	}
	r.tools[t.Name] = t

	logging.ToolsDebug("Registered tool: %s", t.Name)
	return nil
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all tools sorted by name.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dispatch executes one call and always returns a Result, never panics and
// never surfaces an error to the loop. Unknown names and malformed
// arguments become failed results the model can react to.
func (r *Registry) Dispatch(ctx context.Context, call Call) Result {
	tool, ok := r.Get(call.Name)
	if !ok {
		logging.ToolsWarn("Unknown tool requested: %s", call.Name)
		return Result{
			ToolCallIndex: call.Index,
			Success:       false,
			Error:         ErrorUnknownTool,
			Data:          fmt.Sprintf("no tool named %q", call.Name),
		}
	}

	if msg := validateArgs(tool.Schema, call.Arguments); msg != "" {
		logging.ToolsWarn("Invalid arguments for %s: %s", call.Name, msg)
		return Result{
			ToolCallIndex: call.Index,
			Success:       false,
			Error:         ErrorInvalidArguments,
			Data:          msg,
		}
	}

	timer := logging.StartTimer(logging.CategoryTools, call.Name)
	out, err := execute(ctx, tool, call.Arguments)
	elapsed := timer.Stop()

	if err != nil {
		logging.ToolsWarn("Tool %s failed after %v: %v", call.Name, elapsed, err)
		return Result{
			ToolCallIndex: call.Index,
			Success:       false,
			Error:         err.Error(),
		}
	}

	logging.Tools("Tool %s completed in %v", call.Name, elapsed)
	res := Result{
		ToolCallIndex: call.Index,
		Success:       true,
	}
	if out != nil {
		res.Data = out.Data
		res.Deltas = out.Deltas
	}
	return res
}

// execute runs the handler with panic containment. A panicking handler must
// not crash the run; it becomes a failed result like any other tool error.
func execute(ctx context.Context, tool *Tool, args map[string]any) (out *Output, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.ToolsError("PANIC RECOVERED in tool %s: %v", tool.Name, rec)
			out = nil
			err = fmt.Errorf("tool %s panicked: %v", tool.Name, rec)
		}
	}()
	return tool.Execute(ctx, args)
}

// validateArgs checks required fields and declared types. Returns an empty
// string when the arguments are acceptable, otherwise a field-level message.
func validateArgs(schema Schema, args map[string]any) string {
	for _, req := range schema.Required {
		if _, ok := args[req]; !ok {
			return fmt.Sprintf("missing required field %q", req)
		}
	}
	for name, value := range args {
		prop, ok := schema.Properties[name]
		if !ok {
			// Undeclared extras are tolerated; models pad arguments.
			continue
		}
		if !typeMatches(prop.Type, value) {
			return fmt.Sprintf("field %q expects %s, got %T", name, prop.Type, value)
		}
	}
	return ""
}

// typeMatches checks a value against a JSON schema type name. Numbers arrive
// as float64 from JSON decoding but handlers may also pass native ints.
// JSON null never satisfies a declared type; handlers assert on these values
// and must not see nil.
func typeMatches(typ string, value any) bool {
	if value == nil {
		return false
	}
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int64, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	default:
		return true
	}
}

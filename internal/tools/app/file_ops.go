package app

import (
	"context"
	"fmt"

	"appforge/internal/progress"
	"appforge/internal/tools"
)

func writeFileTool(env *Env) *tools.Tool {
	return &tools.Tool{
		Name:        "write_file",
		Description: "Create or overwrite a file with the given content. True overwrite: rewriting identical content leaves the store unchanged.",
		Mutates:     true,
		Schema: tools.Schema{
			Required: []string{"path", "content"},
			Properties: map[string]tools.Property{
				"path":    {Type: "string", Description: "File path within the app"},
				"content": {Type: "string", Description: "Full file content"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (*tools.Output, error) {
			path := args["path"].(string)
			content := args["content"].(string)

			existed := false
			unchanged := false
			if prev, err := env.Store.Read(path); err == nil {
				existed = true
				unchanged = prev.Content == content
			}
			f, err := env.Store.Write(path, content, "")
			if err != nil {
				return nil, err
			}
			env.Tracker.Track(path, f.Content)

			// An identical rewrite is a successful no-op: no delta, no
			// progress event, nothing to snapshot.
			if unchanged {
				return &tools.Output{
					Data: fmt.Sprintf("%s unchanged (%d bytes)", path, f.SizeBytes),
				}, nil
			}

			action := progress.ActionCreated
			if existed {
				action = progress.ActionUpdated
			}
			return &tools.Output{
				Data:   fmt.Sprintf("%s %s (%d bytes)", action, path, f.SizeBytes),
				Deltas: []progress.FileDelta{{Path: path, Action: action}},
			}, nil
		},
	}
}

func readFileTool(env *Env) *tools.Tool {
	return &tools.Tool{
		Name:        "read_file",
		Description: "Read the current content of a file.",
		Schema: tools.Schema{
			Required: []string{"path"},
			Properties: map[string]tools.Property{
				"path": {Type: "string", Description: "File path within the app"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (*tools.Output, error) {
			f, err := env.Store.Read(args["path"].(string))
			if err != nil {
				return nil, err
			}
			return &tools.Output{Data: map[string]any{
				"path":         f.Path,
				"content":      f.Content,
				"content_type": string(f.ContentType),
			}}, nil
		},
	}
}

func replaceLinesTool(env *Env) *tools.Tool {
	return &tools.Tool{
		Name:        "replace_lines",
		Description: "Replace an inclusive 1-indexed line range with new text. Line numbers refer to the current stored content.",
		Mutates:     true,
		Schema: tools.Schema{
			Required: []string{"path", "first_line", "last_line", "replacement"},
			Properties: map[string]tools.Property{
				"path":        {Type: "string", Description: "File path within the app"},
				"first_line":  {Type: "integer", Description: "First line to replace (1-indexed)"},
				"last_line":   {Type: "integer", Description: "Last line to replace (inclusive)"},
				"replacement": {Type: "string", Description: "Text spliced into the range"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (*tools.Output, error) {
			path := args["path"].(string)
			first := toInt(args["first_line"])
			last := toInt(args["last_line"])
			replacement := args["replacement"].(string)

			f, err := env.Store.ReplaceLines(path, first, last, replacement)
			if err != nil {
				return nil, err
			}
			env.Tracker.Track(path, f.Content)

			return &tools.Output{
				Data:   fmt.Sprintf("replaced lines %d-%d in %s", first, last, path),
				Deltas: []progress.FileDelta{{Path: path, Action: progress.ActionUpdated}},
			}, nil
		},
	}
}

func deleteFileTool(env *Env) *tools.Tool {
	return &tools.Tool{
		Name:        "delete_file",
		Description: "Delete a file.",
		Mutates:     true,
		Schema: tools.Schema{
			Required: []string{"path"},
			Properties: map[string]tools.Property{
				"path": {Type: "string", Description: "File path within the app"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (*tools.Output, error) {
			path := args["path"].(string)
			if err := env.Store.Delete(path); err != nil {
				return nil, err
			}
			env.Tracker.Forget(path)

			return &tools.Output{
				Data:   fmt.Sprintf("deleted %s", path),
				Deltas: []progress.FileDelta{{Path: path, Action: progress.ActionDeleted}},
			}, nil
		},
	}
}

func renameFileTool(env *Env) *tools.Tool {
	return &tools.Tool{
		Name:        "rename_file",
		Description: "Move a file to a new path, preserving content and type. Fails if the destination exists.",
		Mutates:     true,
		Schema: tools.Schema{
			Required: []string{"old_path", "new_path"},
			Properties: map[string]tools.Property{
				"old_path": {Type: "string", Description: "Current file path"},
				"new_path": {Type: "string", Description: "Destination path"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (*tools.Output, error) {
			oldPath := args["old_path"].(string)
			newPath := args["new_path"].(string)

			if err := env.Store.Rename(oldPath, newPath); err != nil {
				return nil, err
			}
			env.Tracker.Forget(oldPath)
			if f, err := env.Store.Read(newPath); err == nil {
				env.Tracker.Track(newPath, f.Content)
			}

			return &tools.Output{
				Data: fmt.Sprintf("renamed %s to %s", oldPath, newPath),
				Deltas: []progress.FileDelta{
					{Path: oldPath, Action: progress.ActionDeleted},
					{Path: newPath, Action: progress.ActionCreated},
				},
			}, nil
		},
	}
}

// toInt narrows the numeric types the registry accepts for integer fields.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

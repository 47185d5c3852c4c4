package app

import (
	"context"

	"appforge/internal/filestore"
	"appforge/internal/tools"
)

func searchFilesTool(env *Env) *tools.Tool {
	return &tools.Tool{
		Name:        "search_files",
		Description: "Search all app files for lines matching a regular expression or substring. Case-insensitive unless case_sensitive is set.",
		Schema: tools.Schema{
			Required: []string{"query"},
			Properties: map[string]tools.Property{
				"query":          {Type: "string", Description: "Regular expression or literal substring"},
				"include_glob":   {Type: "string", Description: "Restrict to paths matching this glob, e.g. *.tsx"},
				"case_sensitive": {Type: "boolean", Description: "Match case exactly"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (*tools.Output, error) {
			opts := filestore.SearchOptions{MaxResults: env.SearchMaxResults}
			if glob, ok := args["include_glob"].(string); ok {
				opts.IncludeGlob = glob
			}
			if cs, ok := args["case_sensitive"].(bool); ok {
				opts.CaseSensitive = cs
			}

			matches, err := env.Store.Search(ctx, args["query"].(string), opts)
			if err != nil {
				return nil, err
			}

			results := make([]map[string]any, len(matches))
			for i, m := range matches {
				results[i] = map[string]any{
					"path":        m.Path,
					"line_number": m.LineNumber,
					"line_text":   m.LineText,
				}
			}
			return &tools.Output{Data: results}, nil
		},
	}
}

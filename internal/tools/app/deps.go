package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"appforge/internal/filestore"
	"appforge/internal/progress"
	"appforge/internal/tools"
)

const packageJSONPath = "package.json"

func addDependencyTool(env *Env) *tools.Tool {
	return &tools.Tool{
		Name:        "add_dependency",
		Description: "Add or update a package.json dependency. Spec format is name@version; version defaults to latest.",
		Mutates:     true,
		Schema: tools.Schema{
			Required: []string{"spec"},
			Properties: map[string]tools.Property{
				"spec": {Type: "string", Description: "Dependency spec, e.g. react@18.2.0 or lodash"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (*tools.Output, error) {
			name, version, err := parseDepSpec(args["spec"].(string))
			if err != nil {
				return nil, err
			}

			pkg, existed, err := loadPackageJSON(env)
			if err != nil {
				return nil, err
			}
			deps := dependenciesOf(pkg)
			deps[name] = version

			delta, err := savePackageJSON(env, pkg, existed)
			if err != nil {
				return nil, err
			}
			return &tools.Output{
				Data:   fmt.Sprintf("added %s@%s", name, version),
				Deltas: []progress.FileDelta{delta},
			}, nil
		},
	}
}

func removeDependencyTool(env *Env) *tools.Tool {
	return &tools.Tool{
		Name:        "remove_dependency",
		Description: "Remove a package.json dependency. Removing an absent package succeeds as a no-op.",
		Mutates:     true,
		Schema: tools.Schema{
			Required: []string{"name"},
			Properties: map[string]tools.Property{
				"name": {Type: "string", Description: "Package name to remove"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (*tools.Output, error) {
			name := args["name"].(string)

			if !env.Store.Exists(packageJSONPath) {
				return &tools.Output{Data: fmt.Sprintf("%s not present, nothing to remove", name)}, nil
			}
			pkg, _, err := loadPackageJSON(env)
			if err != nil {
				return nil, err
			}
			deps := dependenciesOf(pkg)
			if _, ok := deps[name]; !ok {
				return &tools.Output{Data: fmt.Sprintf("%s not present, nothing to remove", name)}, nil
			}
			delete(deps, name)

			delta, err := savePackageJSON(env, pkg, true)
			if err != nil {
				return nil, err
			}
			return &tools.Output{
				Data:   fmt.Sprintf("removed %s", name),
				Deltas: []progress.FileDelta{delta},
			}, nil
		},
	}
}

// parseDepSpec splits "name@version" into its parts. Scoped packages keep
// their leading @, so the split happens on the last @ past position zero.
func parseDepSpec(spec string) (name, version string, err error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", "", errors.New("empty dependency spec")
	}
	at := strings.LastIndex(spec, "@")
	if at <= 0 {
		return spec, "latest", nil
	}
	name, version = spec[:at], spec[at+1:]
	if name == "" || version == "" {
		return "", "", fmt.Errorf("malformed dependency spec %q", spec)
	}
	return name, version, nil
}

func loadPackageJSON(env *Env) (pkg map[string]any, existed bool, err error) {
	f, err := env.Store.Read(packageJSONPath)
	if errors.Is(err, filestore.ErrNotFound) {
		return map[string]any{
			"name":         env.Store.AppID(),
			"dependencies": map[string]any{},
		}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal([]byte(f.Content), &pkg); err != nil {
		return nil, false, fmt.Errorf("package.json is not valid JSON: %w", err)
	}
	return pkg, true, nil
}

func dependenciesOf(pkg map[string]any) map[string]any {
	deps, ok := pkg["dependencies"].(map[string]any)
	if !ok {
		deps = map[string]any{}
		pkg["dependencies"] = deps
	}
	return deps
}

func savePackageJSON(env *Env, pkg map[string]any, existed bool) (progress.FileDelta, error) {
	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return progress.FileDelta{}, err
	}
	f, err := env.Store.Write(packageJSONPath, string(data)+"\n", filestore.ContentJSON)
	if err != nil {
		return progress.FileDelta{}, err
	}
	env.Tracker.Track(packageJSONPath, f.Content)

	action := progress.ActionCreated
	if existed {
		action = progress.ActionUpdated
	}
	return progress.FileDelta{Path: packageJSONPath, Action: action}, nil
}

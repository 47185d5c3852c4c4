package app

import "appforge/internal/tools"

// RegisterAll registers the full app tool set on the registry.
func RegisterAll(r *tools.Registry, env *Env) error {
	all := []*tools.Tool{
		writeFileTool(env),
		readFileTool(env),
		replaceLinesTool(env),
		deleteFileTool(env),
		renameFileTool(env),
		searchFilesTool(env),
		addDependencyTool(env),
		removeDependencyTool(env),
		broadcastProgressTool(env),
		generateImageTool(env),
		webSearchTool(env),
	}
	for _, t := range all {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"fmt"
	"strings"
	"sync"

	"appforge/internal/config"
	"appforge/internal/logging"
	"appforge/internal/progress"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runCmd executes one orchestration run for a natural language request.
var runCmd = &cobra.Command{
	Use:   "run [request]",
	Short: "Run the build loop for a natural language request",
	Long: `Sends the request through the orchestration loop: the model edits the
app's files via tools while progress streams to the terminal, and a version
snapshot is created when files changed.

Example:
  forge run --app my-shop "add a dark mode toggle to the settings page"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRequest,
}

func runRequest(cmd *cobra.Command, args []string) error {
	request := strings.Join(args, " ")

	broadcaster := progress.NewChannelBroadcaster(cfg.Limits.EventBufferSize)
	coalescer := progress.NewCoalescer()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// Status lines overwrite in place; file and terminal lines scroll.
		for event := range broadcaster.Events() {
			line := coalescer.Apply(event)
			switch event.Stage {
			case progress.StageUnderstanding, progress.StageThinking:
				fmt.Printf("\r\033[K  %s", line)
			default:
				fmt.Printf("\r\033[K  %s\n", line)
			}
		}
	}()

	r, store, versions, err := buildRunner(cmd.Context(), broadcaster)
	if err != nil {
		broadcaster.Close()
		wg.Wait()
		return err
	}
	defer store.Close()
	defer versions.Close()

	// Pick up config edits made while the loop is running. Limits captured
	// by the runner at construction stay fixed for this run.
	watcher, err := config.NewWatcher(configPath, func(next *config.Config) {
		cfg = next
		if err := logging.ReloadConfig(); err != nil {
			logger.Warn("logging config reload failed", zap.Error(err))
		}
		if err := logging.Apply(loggingSettings(next)); err != nil {
			logger.Warn("logging settings not applied", zap.Error(err))
		}
		logger.Info("config reloaded", zap.String("path", configPath))
	})
	if err == nil {
		if startErr := watcher.Start(cmd.Context()); startErr != nil {
			logger.Warn("config watcher not started", zap.Error(startErr))
		} else {
			defer watcher.Stop()
		}
	} else {
		logger.Warn("config watcher unavailable", zap.Error(err))
	}

	result, runErr := r.Run(cmd.Context(), request)
	broadcaster.Close()
	wg.Wait()
	fmt.Println()

	if runErr != nil {
		return runErr
	}

	logger.Info("run finished",
		zap.String("run_id", result.RunID),
		zap.Int("turns", result.Turns),
		zap.Int("tool_calls", result.ToolCalls))

	if result.Summary != "" {
		fmt.Println(result.Summary)
	}
	if result.Snapshot != nil {
		fmt.Printf("Created version %s (%d files)\n", result.Snapshot.Version, len(result.Snapshot.Files))
	}
	if dropped := broadcaster.Dropped(); dropped > 0 {
		fmt.Printf("(%d progress events dropped)\n", dropped)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"appforge/internal/config"
	"appforge/internal/filestore"
	"appforge/internal/llm"
	"appforge/internal/logging"
	"appforge/internal/progress"
	"appforge/internal/prompt"
	"appforge/internal/runner"
	"appforge/internal/tools"
	"appforge/internal/tools/app"
	"appforge/internal/tracker"
	"appforge/internal/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	appID      string
	workspace  string

	// Logger
	logger *zap.Logger
	cfg    *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "appforge - AI app builder orchestration loop",
	Long: `appforge drives an LLM tool-calling loop over an app's file store:
describe a change in natural language and the model edits the files through
typed tools, streaming progress and snapshotting the result as an immutable
version.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := logging.Initialize(workspace); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := logging.Apply(loggingSettings(cfg)); err != nil {
			return fmt.Errorf("failed to apply logging config: %w", err)
		}
		if logging.IsDebugMode() {
			logging.Boot("appforge starting (app=%s)", appID)
			logging.BootDebug("config=%s workspace=%s", configPath, workspace)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "forge.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&appID, "app", "default", "app id to operate on")
	rootCmd.PersistentFlags().StringVar(&workspace, "workspace", ".", "workspace directory")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(filesCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildRunner wires a runner for the configured app.
func buildRunner(ctx context.Context, broadcaster progress.Broadcaster) (*runner.Runner, *filestore.Store, *version.Store, error) {
	store, err := filestore.NewStore(cfg.Storage.DatabasePath, appID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open file store: %w", err)
	}
	versions, err := version.NewStore(cfg.Storage.DatabasePath)
	if err != nil {
		store.Close()
		return nil, nil, nil, fmt.Errorf("failed to open version store: %w", err)
	}

	tr := tracker.New()
	for _, f := range store.List() {
		tr.Track(f.Path, f.Content)
	}

	provider, err := buildProvider(ctx)
	if err != nil {
		store.Close()
		versions.Close()
		return nil, nil, nil, err
	}

	registry := tools.NewRegistry()
	env := &app.Env{
		Store:            store,
		Tracker:          tr,
		Broadcaster:      broadcaster,
		SearchMaxResults: cfg.Limits.SearchMaxResults,
	}
	if cfg.Services.ImageURL != "" {
		env.Images = app.NewHTTPImageGenerator(cfg.Services.ImageURL, cfg.GetServiceTimeout())
	}
	if cfg.Services.SearchURL != "" {
		env.Search = app.NewHTTPWebSearcher(cfg.Services.SearchURL, cfg.GetServiceTimeout())
	}
	if err := app.RegisterAll(registry, env); err != nil {
		store.Close()
		versions.Close()
		return nil, nil, nil, fmt.Errorf("failed to register tools: %w", err)
	}

	r := runner.New(runner.Deps{
		AppID:       appID,
		Provider:    provider,
		Registry:    registry,
		Builder:     prompt.NewBuilder(store, tr),
		Store:       store,
		Broadcaster: broadcaster,
		Versions:    versions,
		Locks:       appLocks,
		Options: runner.Options{
			MaxTurns:        cfg.Limits.MaxTurns,
			MaxToolsPerTurn: cfg.Limits.MaxToolsPerTurn,
		},
	})
	return r, store, versions, nil
}

// appLocks is shared across commands in this process.
var appLocks = runner.NewLocks()

// loggingSettings maps the config's logging section onto the logging package.
func loggingSettings(c *config.Config) logging.Settings {
	return logging.Settings{
		DebugMode:  c.Logging.DebugMode,
		Level:      c.Logging.Level,
		JSONFormat: c.Logging.JSONFormat,
		Categories: c.Logging.Categories,
	}
}

// buildProvider assembles the primary provider with its configured fallback.
func buildProvider(ctx context.Context) (llm.Provider, error) {
	primary, err := providerFor(ctx, cfg.LLM.Provider, config.ProviderConfig{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("primary provider: %w", err)
	}

	if !cfg.LLM.HasFallback() {
		return llm.NewFallback(primary, nil), nil
	}
	secondary, err := providerFor(ctx, cfg.LLM.Fallback.Provider, cfg.LLM.Fallback)
	if err != nil {
		logger.Warn("fallback provider unavailable, continuing without it", zap.Error(err))
		return llm.NewFallback(primary, nil), nil
	}
	return llm.NewFallback(primary, secondary), nil
}

func providerFor(ctx context.Context, kind string, pc config.ProviderConfig) (llm.Provider, error) {
	switch kind {
	case "openai":
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  pc.APIKey,
			BaseURL: pc.BaseURL,
			Model:   pc.Model,
			Timeout: cfg.GetLLMTimeout(),
		}), nil
	case "gemini":
		return llm.NewGeminiClient(ctx, pc.APIKey, pc.Model)
	default:
		return nil, fmt.Errorf("unknown provider %q", kind)
	}
}

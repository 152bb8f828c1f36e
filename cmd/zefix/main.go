// zefix queries the Swiss commercial registry (Zefix) and assembles flat
// views of company search results, takeover chains, and acquirers.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Fmazzesi/zefixtools/internal/config"
	"github.com/Fmazzesi/zefixtools/internal/firms"
	"github.com/Fmazzesi/zefixtools/internal/llm"
	"github.com/Fmazzesi/zefixtools/internal/logging"
	"github.com/Fmazzesi/zefixtools/internal/normalize"
	"github.com/Fmazzesi/zefixtools/internal/registry"
	"github.com/Fmazzesi/zefixtools/internal/store"
	"github.com/Fmazzesi/zefixtools/internal/translate"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global state, populated in PersistentPreRunE.
var (
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "zefix",
	Short: "zefix — Swiss commercial registry lookups",
	Long: `zefix queries the public Zefix REST service and builds flat views of
company search results, recursive takeover chains, and the acquirers of a
company. Results can be printed as JSON or a table, and saved to disk.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logger = logging.Init(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(takeoversCmd)
	rootCmd.AddCommand(acquirersCmd)
	rootCmd.AddCommand(legalFormsCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Wiring ---

func newRegistry() *registry.Client {
	return registry.New(
		registry.WithBaseURL(cfg.Registry.BaseURL),
		registry.WithTimeout(time.Duration(cfg.Registry.TimeoutSec)*time.Second),
		registry.WithUserAgent(cfg.Registry.UserAgent),
		registry.WithLogger(logger),
	)
}

// newTranslator returns nil only when translation is switched off. A backend
// that is configured but cannot be set up yields a translator that fails every
// call, so each affected record carries a translation issue.
func newTranslator() normalize.Translator {
	if !cfg.Translation.Enabled() {
		logger.Debug("translation disabled by configuration")
		return nil
	}
	router, err := llm.NewRouterFromConfig(cfg.Translation, logger)
	if err != nil {
		logger.Warn("translation unavailable, texts will be flagged", "provider", cfg.Translation.Provider, "error", err)
		return translate.Unavailable{Cause: err}
	}
	return translate.New(router,
		translate.WithTargetLanguage(cfg.Translation.TargetLanguage),
		translate.WithModel(cfg.Translation.Model),
	)
}

func newService() *firms.Service {
	norm := normalize.New(newTranslator(), normalize.WithLogger(logger))
	return firms.New(newRegistry(), norm,
		firms.WithConcurrency(cfg.Traversal.Concurrency),
		firms.WithMaxDepth(cfg.Traversal.MaxDepth),
		firms.WithLogger(logger),
	)
}

func newStore() *store.Store {
	return store.New(cfg.Output.Dir, logger)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("zefix %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and check upstream connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  zefix — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time:          %s\n", time.Now().Format(time.RFC1123))
		fmt.Println()

		// Config summary
		fmt.Println("  Configuration:")
		fmt.Printf("    Registry:      %s (timeout %ds)\n", cfg.Registry.BaseURL, cfg.Registry.TimeoutSec)
		fmt.Printf("    Translation:   %s (model: %s, target: %s)\n",
			cfg.Translation.Provider, cfg.Translation.Model, cfg.Translation.TargetLanguage)
		depth := "unlimited"
		if cfg.Traversal.MaxDepth > 0 {
			depth = fmt.Sprint(cfg.Traversal.MaxDepth)
		}
		fmt.Printf("    Traversal:     concurrency %d, max depth %s\n", cfg.Traversal.Concurrency, depth)
		fmt.Printf("    Output dir:    %s\n", cfg.Output.Dir)
		fmt.Println()

		// API keys status
		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set"
			switch {
			case k.IsSet && k.EnvVar != "":
				status = fmt.Sprintf("set (%s %s: %s)", k.Source, k.EnvVar, k.Masked)
			case k.IsSet:
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			case !k.Required:
				status = "not needed"
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}
		fmt.Println()

		// Connectivity
		fmt.Println("  Connectivity:")
		fmt.Printf("    %-25s %s\n", "Zefix registry:", pingResult(newRegistry().Ping(ctx)))
		if cfg.Translation.Enabled() {
			router, err := llm.NewRouterFromConfig(cfg.Translation, logger)
			if err == nil {
				err = router.Ping(ctx)
			}
			fmt.Printf("    %-25s %s\n", "Translation backend:", pingResult(err))
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func pingResult(err error) string {
	if err != nil {
		return "unreachable (" + err.Error() + ")"
	}
	return "ok"
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/nvandessel/aisim/internal/config"
	"github.com/nvandessel/aisim/internal/logging"
	"github.com/nvandessel/aisim/internal/store"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aisim",
		Short: "AI trajectory simulator",
		Long: `aisim runs deterministic, month-stepped simulations of a population of
AI systems, the labs that train them and the evaluators that try to keep
them honest.

Every run is reproducible from its seed. Finished runs are stored in
~/.aisim/runs.db and can be listed, inspected and exported.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ~/.aisim/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, trace (overrides config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newBatchCmd(),
		newHistoryCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

// loadConfig loads the configuration named by --config, falling back to
// the default locations, and applies --log-level.
func loadConfig(cmd *cobra.Command) (*config.AisimConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the operational logger. When trace is non-nil, debug
// records are teed into it as JSON.
func newLogger(cmd *cobra.Command, cfg *config.AisimConfig, trace *logging.EventTrace) *slog.Logger {
	return logging.NewTeeLogger(cfg.Logging.Level, cmd.ErrOrStderr(), trace)
}

// openStore opens the run database configured in cfg.
func openStore(cfg *config.AisimConfig) (*store.SQLiteRunStore, error) {
	path := cfg.Store.Path
	if path == "" {
		if err := store.EnsureGlobalAisimDir(); err != nil {
			return nil, err
		}
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	s, err := store.NewSQLiteRunStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	return s, nil
}

// signalContext returns a context cancelled on the first interrupt signal.
// Runs check it between ticks, so an interrupted run ends cleanly.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, interruptSignals...)
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

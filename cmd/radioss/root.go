// Package main provides the CLI entrypoint for radioss.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"radioss/internal/config"
	"radioss/internal/stations"
	"radioss/internal/storage"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "radioss",
	Short: "Internet radio in the terminal, with Discord Rich Presence",
	Long: `radioss plays internet radio stations from radio-browser.info and
shows what you are listening to as Discord Rich Presence.

Running radioss without a subcommand launches the interactive TUI.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel.Set(resolveLogLevel("", globalOpts.verbose))
		setupLogger(os.Stderr)

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logLevel.Set(resolveLogLevel(cfg.LogLevel, globalOpts.verbose))
		return nil
	},
	// Default to TUI when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/radioss/config.toml)")
}

// logLevel is shared by every handler setupLogger installs.
var logLevel = new(slog.LevelVar)

// resolveLogLevel picks the level: --verbose wins, then the config file,
// then warn.
func resolveLogLevel(configured string, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	if level, ok := config.ParseLogLevel(configured); ok {
		return level
	}
	return slog.LevelWarn
}

// setupLogger configures the global slog logger to write to w.
func setupLogger(w io.Writer) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// newStore opens the user data store.
func newStore() (*storage.Store, error) {
	dir := config.DataPath()
	if err := config.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return storage.NewStore(dir, logger), nil
}

// newClient returns a station directory client using the configured API
// and the user cache directory.
func newClient() *stations.Client {
	c := stations.NewClient(cfg.Radio.APIBaseURL, cfg.Radio.UserAgent)
	c.CacheDir = config.CachePath()
	c.Logger = logger
	return c
}

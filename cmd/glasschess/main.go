// glasschess is a chess mini-app for a glasses display driven by four
// gestures: scroll up, scroll down, tap and double tap.
//
// Usage:
//
//	glasschess play             - Play in the terminal simulator
//	glasschess serve            - Serve the simulator over SSH
//	glasschess bridge           - Run the WebSocket device bridge
//	glasschess scores [drill]   - Show academy results
//	glasschess profiles         - List engine difficulty profiles
//
// Global flags:
//
//	--config <path>     - Config file (default: search ~/.glasschess, ./configs)
//	--db <path>         - Database path (overrides the config)
//	--seed <value>      - RNG seed for reproducible engine fallback moves
//	--log-level <level> - debug, info, warn or error
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/glasschess/internal/app"
	"github.com/vovakirdan/glasschess/internal/config"
	"github.com/vovakirdan/glasschess/internal/storage"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagSeed     int64
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "glasschess",
	Short: "Chess for a four-gesture glasses display",
	Long: `glasschess plays chess against a UCI engine (or a random-move
fallback) on the 48x12 text display of smart glasses. Everything is driven
by four gestures: scroll up, scroll down, tap and double tap.

Available commands:
  play      - Terminal simulator of the glasses
  serve     - Simulator over SSH, one game per user
  bridge    - WebSocket bridge for phones and browser simulators
  scores    - Academy drill results
  profiles  - Engine difficulty profiles

Examples:
  glasschess play
  glasschess play --engine /usr/bin/stockfish
  glasschess serve --ssh :2222
  glasschess bridge --addr :8787
  glasschess scores knight`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the database (default from config)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bridgeCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(profilesCmd)
}

// newLogger builds the process logger writing to w.
func newLogger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "glasschess",
	})
	logger.SetLevel(level)
	return logger, nil
}

// loadConfig loads the configuration and applies the global overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}
	return cfg, nil
}

// openStore opens the database. A database that cannot be opened is logged
// and the game runs without persistence.
func openStore(cfg config.Config, logger *log.Logger) *storage.Store {
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		logger.Warn("could not open database, nothing will be saved", "path", cfg.Storage.Path, "err", err)
		return nil
	}
	return store
}

// newApp wires config, storage and logger into an App.
func newApp(cfg config.Config, store *storage.Store, logger *log.Logger) (*app.App, error) {
	return app.New(app.Options{
		Config: cfg,
		Store:  store,
		Logger: logger,
		Seed:   flagSeed,
	})
}

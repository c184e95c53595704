package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/glasschess/internal/display"
	"github.com/vovakirdan/glasschess/internal/platform/tui"
)

var (
	flagEngine  string
	flagLogFile string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal simulator",
	Long: `Start the terminal simulator of the glasses display.

Gestures:
  Up/K       - Scroll up
  Down/J     - Scroll down
  Enter      - Tap
  Esc/D      - Double tap
  F          - Take the glasses off / put them on
  Q/Ctrl+C   - Quit without the exit dialog

A game left through "Save and exit" is resumed on the next start.

Examples:
  glasschess play
  glasschess play --engine /usr/bin/stockfish
  glasschess play --log-file /tmp/glasschess.log --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagEngine, "engine", "", "Path to a UCI engine (overrides the config)")
	playCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file (the screen is taken by the simulator)")
}

func runPlay(_ *cobra.Command, _ []string) error {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("play needs an interactive terminal")
	}
	// Lens border plus the text lines around it.
	if w, h, termErr := term.GetSize(fd); termErr == nil && (w < display.Cols+2 || h < display.Rows+5) {
		return fmt.Errorf("terminal is %dx%d, need at least %dx%d", w, h, display.Cols+2, display.Rows+5)
	}

	var logOut io.Writer = io.Discard
	if flagLogFile != "" {
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("cannot open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger, err := newLogger(logOut)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagEngine != "" {
		cfg.Engine.Path = flagEngine
	}

	store := openStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}
	a, err := newApp(cfg, store, logger)
	if err != nil {
		return err
	}

	exits, onExit := tui.ExitChannel()
	g := a.Launch(context.Background(), "", onExit)
	defer g.Close()

	return tui.Run(g, exits)
}

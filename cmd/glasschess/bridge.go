package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/glasschess/internal/transport/ws"
)

var (
	flagBridgeAddr string
	flagOrigins    []string
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Run the WebSocket device bridge",
	Long: `Start the device bridge. A phone hub or a browser simulator connects
to ws://<host>/ws?player=<name>, sends raw glasses events as JSON and
receives {"type":"frame","phase":...,"text":...} after every change.

Examples:
  glasschess bridge
  glasschess bridge --addr :9000
  glasschess bridge --origin "*.example.com"`,
	Args: cobra.NoArgs,
	RunE: runBridge,
}

func init() {
	bridgeCmd.Flags().StringVar(&flagBridgeAddr, "addr", "", "Listen address (default from config)")
	bridgeCmd.Flags().StringSliceVar(&flagOrigins, "origin", nil, "Allowed cross-origin host patterns")
}

func runBridge(_ *cobra.Command, _ []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagBridgeAddr != "" {
		cfg.Server.BridgeAddr = flagBridgeAddr
	}

	store := openStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}
	a, err := newApp(cfg, store, logger)
	if err != nil {
		return err
	}

	srv := ws.NewServer(ws.Config{OriginPatterns: flagOrigins, Logger: logger}, a)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, cfg.Server.BridgeAddr)
}

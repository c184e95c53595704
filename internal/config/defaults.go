package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/glasschess/internal/engine"
	"github.com/vovakirdan/glasschess/internal/input"
)

//go:embed defaults/glasschess.yaml
var defaultYAML []byte

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte { return defaultYAML }

// Default returns the hard-coded configuration used when no YAML is usable.
func Default() Config {
	return Config{
		Input: input.DefaultConfig(),
		Game: GameConfig{
			GestureWindow: 200 * time.Millisecond,
			HistoryCap:    200,
			Difficulty:    "easy",
			GameOverDelay: 500 * time.Millisecond,
			ClockTick:     100 * time.Millisecond,
		},
		Engine: EngineConfig{
			HandshakeTimeout: engine.DefaultHandshakeTimeout,
			Grace:            engine.DefaultGrace,
			FallbackDelayCap: engine.DefaultFallbackDelayCap,
		},
		Profiles: engine.DefaultProfiles(),
		TimeControls: []TimeControl{
			{Name: "1+0", Base: time.Minute},
			{Name: "1+1", Base: time.Minute, Increment: time.Second},
			{Name: "2+1", Base: 2 * time.Minute, Increment: time.Second},
			{Name: "3+0", Base: 3 * time.Minute},
			{Name: "3+2", Base: 3 * time.Minute, Increment: 2 * time.Second},
			{Name: "5+0", Base: 5 * time.Minute},
		},
		Storage: StorageConfig{Path: "~/.glasschess/glasschess.db"},
		Server: ServerConfig{
			SSHAddr:     ":2323",
			HostKeyPath: "~/.glasschess/host_key",
			BridgeAddr:  ":8787",
		},
	}
}

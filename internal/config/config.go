// Package config provides YAML-based configuration loading for glasschess:
// input timings, reducer settings, engine profiles, time controls, storage
// and server addresses.
package config

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/glasschess/internal/academy"
	"github.com/vovakirdan/glasschess/internal/chess/state"
	"github.com/vovakirdan/glasschess/internal/engine"
	"github.com/vovakirdan/glasschess/internal/input"
)

// Config is the whole application configuration.
type Config struct {
	Input        input.Config     `yaml:"input"`
	Game         GameConfig       `yaml:"game"`
	Engine       EngineConfig     `yaml:"engine"`
	Profiles     []engine.Profile `yaml:"profiles"`
	TimeControls []TimeControl    `yaml:"time_controls"`
	Storage      StorageConfig    `yaml:"storage"`
	Server       ServerConfig     `yaml:"server"`
}

// GameConfig holds reducer and session timings.
type GameConfig struct {
	GestureWindow time.Duration `yaml:"gesture_window"`
	HistoryCap    int           `yaml:"history_cap"`
	Difficulty    string        `yaml:"difficulty"`
	GameOverDelay time.Duration `yaml:"game_over_delay"`
	ClockTick     time.Duration `yaml:"clock_tick"`
}

// EngineConfig describes the UCI worker. An empty Path means the random
// fallback plays every move.
type EngineConfig struct {
	Path             string        `yaml:"path"`
	Args             []string      `yaml:"args"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	Grace            time.Duration `yaml:"grace"`
	FallbackDelayCap time.Duration `yaml:"fallback_delay_cap"`
}

// TimeControl is a bullet preset.
type TimeControl struct {
	Name      string        `yaml:"name"`
	Base      time.Duration `yaml:"base"`
	Increment time.Duration `yaml:"increment"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds the listen addresses of the SSH simulator and the
// device bridge.
type ServerConfig struct {
	SSHAddr     string `yaml:"ssh_addr"`
	HostKeyPath string `yaml:"host_key_path"`
	BridgeAddr  string `yaml:"bridge_addr"`
}

// Difficulties returns the profile names in configured order.
func (c Config) Difficulties() []state.Difficulty {
	out := make([]state.Difficulty, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		out = append(out, state.Difficulty(p.Name))
	}
	return out
}

// StateTimeControls converts the bullet presets for the reducer.
func (c Config) StateTimeControls() []state.TimeControl {
	out := make([]state.TimeControl, 0, len(c.TimeControls))
	for _, tc := range c.TimeControls {
		out = append(out, state.TimeControl{Name: tc.Name, Base: tc.Base, Increment: tc.Increment})
	}
	return out
}

// ReducerConfig builds the reducer's static data. start is the board of a
// new game as the oracle reports it.
func (c Config) ReducerConfig(start state.BoardSnapshot, cat *academy.Catalog) state.Config {
	return state.Config{
		GestureWindow: c.Game.GestureWindow,
		HistoryCap:    c.Game.HistoryCap,
		Difficulty:    state.Difficulty(c.Game.Difficulty),
		Difficulties:  c.Difficulties(),
		TimeControls:  c.StateTimeControls(),
		Start:         start,
		Catalog:       cat,
	}
}

// BridgeOptions builds the engine bridge options.
func (c Config) BridgeOptions(seed int64, logger *log.Logger) engine.Options {
	return engine.Options{
		HandshakeTimeout: c.Engine.HandshakeTimeout,
		Grace:            c.Engine.Grace,
		FallbackDelayCap: c.Engine.FallbackDelayCap,
		Seed:             seed,
		Logger:           logger,
	}
}

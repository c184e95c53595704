package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/glasschess/internal/chess/state"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	cfg, err := Parse(DefaultYAML())
	if err != nil {
		t.Fatalf("Parse(embedded) failed: %v", err)
	}
	def := Default()

	if cfg.Input != def.Input {
		t.Errorf("input = %+v, want %+v", cfg.Input, def.Input)
	}
	if cfg.Game != def.Game {
		t.Errorf("game = %+v, want %+v", cfg.Game, def.Game)
	}
	if len(cfg.Profiles) != len(def.Profiles) {
		t.Fatalf("profiles = %d, want %d", len(cfg.Profiles), len(def.Profiles))
	}
	for i := range cfg.Profiles {
		if cfg.Profiles[i] != def.Profiles[i] {
			t.Errorf("profile %d = %+v, want %+v", i, cfg.Profiles[i], def.Profiles[i])
		}
	}
	if len(cfg.TimeControls) != len(def.TimeControls) {
		t.Fatalf("time controls = %d, want %d", len(cfg.TimeControls), len(def.TimeControls))
	}
	for i := range cfg.TimeControls {
		if cfg.TimeControls[i] != def.TimeControls[i] {
			t.Errorf("time control %d = %+v, want %+v", i, cfg.TimeControls[i], def.TimeControls[i])
		}
	}
	e, d := cfg.Engine, def.Engine
	if e.Path != d.Path || len(e.Args) != 0 || e.HandshakeTimeout != d.HandshakeTimeout ||
		e.Grace != d.Grace || e.FallbackDelayCap != d.FallbackDelayCap {
		t.Errorf("engine = %+v, want %+v", e, d)
	}
	if cfg.Storage != def.Storage || cfg.Server != def.Server {
		t.Errorf("storage/server = %+v %+v", cfg.Storage, cfg.Server)
	}
}

func TestLoadCustomPathOverridesSomeKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	data := []byte(`
input:
  tap_cooldown: 300ms
game:
  difficulty: hard
profiles:
  - name: hard
    skill: 20
    depth: 18
    movetime: 2s
engine:
  path: /usr/bin/stockfish
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Input.TapCooldown != 300*time.Millisecond {
		t.Errorf("tap cooldown = %s", cfg.Input.TapCooldown)
	}
	if cfg.Input.ScrollDebounce != 8*time.Millisecond {
		t.Errorf("unset scroll debounce lost its default: %s", cfg.Input.ScrollDebounce)
	}
	if len(cfg.Profiles) != 1 || cfg.Profiles[0].MoveTime != 2*time.Second {
		t.Errorf("profiles = %+v", cfg.Profiles)
	}
	if cfg.Engine.Path != "/usr/bin/stockfish" || cfg.Engine.Grace != 2*time.Second {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if len(cfg.TimeControls) != 6 {
		t.Errorf("time controls = %d, want defaults", len(cfg.TimeControls))
	}

	rc := cfg.ReducerConfig(state.BoardSnapshot{}, nil)
	if rc.Difficulty != "hard" || len(rc.Difficulties) != 1 {
		t.Errorf("reducer config = %+v", rc)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing custom config")
	}

	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "game: [1, 2"},
		{"profile without name", "profiles:\n  - movetime: 1s\n"},
		{"duplicate profile", "profiles:\n  - {name: a, movetime: 1s}\n  - {name: a, movetime: 1s}\n"},
		{"unknown difficulty", "game:\n  difficulty: grandmaster\n"},
		{"zero base", "time_controls:\n  - {name: x, base: 0s}\n"},
		{"bad duration", "input:\n  tap_cooldown: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFallsBackToEmbedded(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.BridgeAddr != ":8787" || len(cfg.Profiles) != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadPrefersUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".glasschess")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  bridge_addr: \":9999\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.BridgeAddr != ":9999" {
		t.Errorf("bridge addr = %q", cfg.Server.BridgeAddr)
	}
}

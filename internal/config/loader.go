package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads the configuration.
// Search order: customPath -> ~/.glasschess/config.yaml -> ./configs/glasschess.yaml -> embedded default.
// Keys missing from the file keep their default values.
func Load(customPath string) (Config, error) {
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return Config{}, fmt.Errorf("config: cannot read %s: %w", customPath, err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return Config{}, fmt.Errorf("config: cannot parse %s: %w", customPath, err)
		}
		return cfg, nil
	}

	for _, path := range []string{userConfigPath("config.yaml"), filepath.Join("configs", "glasschess.yaml")} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if cfg, err := Parse(data); err == nil {
			return cfg, nil
		}
	}

	cfg, err := Parse(defaultYAML)
	if err != nil {
		return Default(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	// Lists replace the defaults wholesale rather than merging by index.
	cfg.Profiles = nil
	cfg.TimeControls = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if len(cfg.Profiles) == 0 {
		cfg.Profiles = Default().Profiles
	}
	if len(cfg.TimeControls) == 0 {
		cfg.TimeControls = Default().TimeControls
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration errors the app cannot recover from.
func (c Config) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(c.Profiles))
	for i, p := range c.Profiles {
		switch {
		case p.Name == "":
			errs = append(errs, fmt.Errorf("profiles[%d]: missing name", i))
		case seen[p.Name]:
			errs = append(errs, fmt.Errorf("profiles[%d]: duplicate name %q", i, p.Name))
		}
		seen[p.Name] = true
		if p.MoveTime <= 0 {
			errs = append(errs, fmt.Errorf("profiles[%d]: movetime must be positive", i))
		}
	}
	for i, tc := range c.TimeControls {
		if tc.Base <= 0 {
			errs = append(errs, fmt.Errorf("time_controls[%d]: base must be positive", i))
		}
		if tc.Increment < 0 {
			errs = append(errs, fmt.Errorf("time_controls[%d]: negative increment", i))
		}
	}
	if c.Game.Difficulty != "" && !seen[c.Game.Difficulty] {
		errs = append(errs, fmt.Errorf("game.difficulty %q names no profile", c.Game.Difficulty))
	}
	return errors.Join(errs...)
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".glasschess", filename)
}

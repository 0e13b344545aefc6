// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Game    GameConfig          `toml:"game"`
	Scoring ScoringConfig       `toml:"scoring"`
	Romaji  map[string][]string `toml:"romaji"`
}

// GameConfig maps round and word selection settings.
type GameConfig struct {
	RoundSeconds *int     `toml:"round-seconds"`
	Rounds       *int     `toml:"rounds"`
	CooldownMs   *int     `toml:"cooldown-ms"`
	Tiers        *string  `toml:"tiers"`
	FocusWeak    *bool    `toml:"focus-weak"`
	WeakTop      *int     `toml:"weak-top"`
	WeakFactor   *float64 `toml:"weak-factor"`
	WeakWindow   *int     `toml:"weak-window"`
	LogLevel     *string  `toml:"log-level"`
}

// ScoringConfig maps reward balance settings.
type ScoringConfig struct {
	ComboStep          *float64 `toml:"combo-step"`
	ComboSpan          *int     `toml:"combo-span"`
	CriticalRate       *float64 `toml:"critical-rate"`
	CriticalMultiplier *float64 `toml:"critical-multiplier"`
	MaxCriticalRate    *float64 `toml:"max-critical-rate"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Template is written by `kanabake config` when no file exists yet.
const Template = `# kanabake configuration. Command-line flags override these values.

[game]
# round-seconds = 30
# rounds = 10
# cooldown-ms = 500
# tiers = "/path/to/tiers.yaml"
# focus-weak = false
# weak-top = 8
# weak-factor = 2.0
# weak-window = 20
# log-level = "info"

[scoring]
# combo-step = 0.1
# combo-span = 10
# critical-rate = 0.05
# critical-multiplier = 2
# max-critical-rate = 0.5

# Extra or replacement romaji spellings. The first spelling is shown in the
# guide.
[romaji]
# "ふ" = ["fu", "hu"]
`

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Game.Rounds != nil || cfg.Romaji != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	doc := `[game]
rounds = 3
focus-weak = true
log-level = "debug"

[scoring]
combo-step = 0.2

[romaji]
"ふ" = ["fu", "hu"]
"ゐ" = ["wi"]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Game.Rounds == nil || *cfg.Game.Rounds != 3 {
		t.Fatalf("rounds = %v", cfg.Game.Rounds)
	}
	if cfg.Game.RoundSeconds != nil {
		t.Fatal("unset key should stay nil")
	}
	if cfg.Game.FocusWeak == nil || !*cfg.Game.FocusWeak || *cfg.Game.LogLevel != "debug" {
		t.Fatalf("game = %+v", cfg.Game)
	}
	if cfg.Scoring.ComboStep == nil || *cfg.Scoring.ComboStep != 0.2 {
		t.Fatalf("scoring = %+v", cfg.Scoring)
	}
	if got := cfg.Romaji["ゐ"]; len(got) != 1 || got[0] != "wi" {
		t.Fatalf("romaji = %v", cfg.Romaji)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[game]\nround = 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "game.round") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err != nil {
		t.Fatalf("template does not decode: %v", err)
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "kanabake", "config.toml") {
		t.Fatalf("config path = %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "kanabake", "kanabake.db") {
		t.Fatalf("db path = %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join("/state", "kanabake", "kanabake.log") {
		t.Fatalf("log path = %s", got)
	}
	if got := DefaultTiersPath(); got != filepath.Join("/cfg", "kanabake", "tiers.yaml") {
		t.Fatalf("tiers path = %s", got)
	}
}

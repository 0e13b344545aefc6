package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/kanabake/internal/config"
	"github.com/verte-zerg/kanabake/internal/model"
	"github.com/verte-zerg/kanabake/internal/romaji"
	"github.com/verte-zerg/kanabake/internal/scoring"
	"github.com/verte-zerg/kanabake/internal/stats"
	"github.com/verte-zerg/kanabake/internal/wordlist"
)

func TestValidateConfig(t *testing.T) {
	valid := model.Config{RoundSeconds: 30, Rounds: 10, CooldownMs: 500, WeakTop: 8, WeakFactor: 2, WeakWindow: 20}
	if err := validateConfig(valid); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	bad := valid
	bad.Rounds = 0
	if err := validateConfig(bad); err == nil || !strings.Contains(err.Error(), "--rounds") {
		t.Fatalf("expected --rounds error, got %v", err)
	}
	bad = valid
	bad.CooldownMs = -1
	if err := validateConfig(bad); err == nil {
		t.Fatal("expected cooldown error")
	}
}

func TestScoringConfigOverrides(t *testing.T) {
	step := 0.2
	rate := 0.9
	cfg := scoringConfig(config.ScoringConfig{ComboStep: &step, MaxCriticalRate: &rate})
	if cfg.ComboStep != 0.2 || cfg.ComboSpan != 10 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if err := validateScoring(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
	engine := scoring.NewEngine(cfg)
	if got := engine.CriticalRate(nil); got != 0.05 {
		t.Fatalf("critical rate = %v, want 0.05", got)
	}
	span := 0
	if err := validateScoring(scoringConfig(config.ScoringConfig{ComboSpan: &span})); err == nil {
		t.Fatal("expected combo-span error")
	}
}

func TestLoadTiersDropsUntypeableWords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	data := "tiers:\n  - id: level1\n    multiplier: 1\n    cost: \"0\"\n    words: [\"あめ\", \"漢字\"]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tiers, err := loadTiers(path, romaji.DefaultTable())
	if err != nil {
		t.Fatalf("loadTiers: %v", err)
	}
	if len(tiers) != 1 || len(tiers[0].Words) != 1 || tiers[0].Words[0] != "あめ" {
		t.Fatalf("tiers = %+v", tiers)
	}

	only := filepath.Join(t.TempDir(), "kanji.yaml")
	data = "tiers:\n  - id: level1\n    multiplier: 1\n    cost: \"0\"\n    words: [\"漢字\"]\n"
	if err := os.WriteFile(only, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadTiers(only, romaji.DefaultTable()); !errors.Is(err, wordlist.ErrEmptyTiers) {
		t.Fatalf("expected ErrEmptyTiers, got %v", err)
	}
}

func TestLoadTiersDropsUnreachableTiers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	data := "tiers:\n" +
		"  - {id: level1, multiplier: 1, cost: \"0\", words: [\"あめ\"]}\n" +
		"  - {id: level2, multiplier: 2, cost: \"10\", requires: level1, words: [\"漢字\"]}\n" +
		"  - {id: level3, multiplier: 3, cost: \"100\", requires: level2, words: [\"ぱん\"]}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tiers, err := loadTiers(path, romaji.DefaultTable())
	if err != nil {
		t.Fatalf("loadTiers: %v", err)
	}
	if len(tiers) != 1 || tiers[0].ID != "level1" {
		t.Fatalf("tiers = %+v", tiers)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tiers.yaml")
	if err := writeFileAtomic(path, wordlist.DefaultTiersYAML()); err != nil {
		t.Fatalf("write: %v", err)
	}
	tiers, err := wordlist.LoadTiers(path)
	if err != nil {
		t.Fatalf("exported tiers do not load: %v", err)
	}
	if len(tiers) != 5 {
		t.Fatalf("tiers = %d, want 5", len(tiers))
	}
}

func TestPrintReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := printReport(&buf, stats.Report{}, model.StatsConfig{CurveWindow: 5}, 80); err != nil {
		t.Fatalf("printReport: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "No rounds found.") || !strings.Contains(out, "No kana stats found.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

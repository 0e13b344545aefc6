// Package model defines shared data structures.
package model

import "time"

// Config defines game settings.
type Config struct {
	RoundSeconds int
	Rounds       int
	CooldownMs   int
	FocusWeak    bool
	WeakTop      int
	WeakFactor   float64
	WeakWindow   int
	TiersPath    string
	Seed         int64
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Since       *time.Time
	Last        int
	CurveWindow int
	Kana        string
}

// RoundStats captures a finished round.
type RoundStats struct {
	CycleID    string
	Round      int
	StartedAt  time.Time
	EndedAt    time.Time
	Keystrokes int
	Misses     int
	Units      int
	MaxCombo   int
	Criticals  int
	// Score is the round total as a lossless decimal string.
	Score      string
	DurationMs int64
}

// UnitStats stores per-kana stats for a round.
type UnitStats struct {
	Unit         string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// UnitAggregate aggregates kana stats across rounds.
type UnitAggregate struct {
	Unit         string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// RoundAggregate summarizes a stored round for reporting.
type RoundAggregate struct {
	RoundID    int64
	CycleID    string
	EndedAt    time.Time
	Keystrokes int
	Misses     int
	Units      int
	MaxCombo   int
	Score      string
	DurationMs int64
}

// Snapshot is the persisted state of a play cycle between rounds. Scores
// are decimal strings so they survive beyond float64 range.
type Snapshot struct {
	CycleID    string
	Round      int
	Combo      int
	TotalScore string
	RoundScore string
	Chips      string
	Modifiers  []string
	Unlocked   []string
	// Upgrades counts shop purchases by upgrade ID.
	Upgrades map[string]int
	SavedAt  time.Time
}

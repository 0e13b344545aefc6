package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/kanabake/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "kanabake.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	})
	return st
}

func insertRound(t *testing.T, st *Store, ended time.Time, score string, units []model.UnitStats) int64 {
	t.Helper()
	id, err := st.InsertRound(context.Background(), model.RoundStats{
		CycleID:    "cycle",
		Round:      1,
		StartedAt:  ended.Add(-30 * time.Second),
		EndedAt:    ended,
		Keystrokes: 120,
		Misses:     4,
		Units:      60,
		MaxCombo:   33,
		Score:      score,
		DurationMs: 30000,
	}, units)
	if err != nil {
		t.Fatalf("InsertRound: %v", err)
	}
	return id
}

func TestRoundsAndUnitAggregates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	first := insertRound(t, st, base, "12.5", []model.UnitStats{
		{Unit: "き", Correct: 3, Incorrect: 1, LatencySumMs: 300, LatencyCount: 3},
		{Unit: "きゃ", Correct: 1, Incorrect: 2, LatencySumMs: 200, LatencyCount: 1},
	})
	second := insertRound(t, st, base.Add(time.Minute), "1e400", []model.UnitStats{
		{Unit: "き", Correct: 2, Incorrect: 0, LatencySumMs: 100, LatencyCount: 2},
	})

	rounds, err := st.ListRounds(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("ListRounds: %v", err)
	}
	if len(rounds) != 2 || rounds[0].RoundID != first || rounds[1].RoundID != second {
		t.Fatalf("unexpected rounds %+v", rounds)
	}
	if rounds[1].Score != "1e400" || rounds[0].MaxCombo != 33 {
		t.Fatalf("round fields not preserved: %+v", rounds)
	}

	since := base.Add(30 * time.Second)
	recent, err := st.ListRounds(ctx, model.StatsConfig{Since: &since})
	if err != nil || len(recent) != 1 || recent[0].RoundID != second {
		t.Fatalf("since filter: %+v, %v", recent, err)
	}
	last, err := st.ListRounds(ctx, model.StatsConfig{Last: 1})
	if err != nil || len(last) != 1 || last[0].RoundID != second {
		t.Fatalf("last filter: %+v, %v", last, err)
	}

	aggs, err := st.ListUnitAggregates(ctx, []int64{first, second})
	if err != nil {
		t.Fatalf("ListUnitAggregates: %v", err)
	}
	byUnit := map[string]model.UnitAggregate{}
	for _, a := range aggs {
		byUnit[a.Unit] = a
	}
	if got := byUnit["き"]; got.Correct != 5 || got.Incorrect != 1 || got.LatencyCount != 5 {
		t.Fatalf("き aggregate = %+v", got)
	}

	weak, err := st.GetWeakUnits(ctx, 1)
	if err != nil {
		t.Fatalf("GetWeakUnits: %v", err)
	}
	if len(weak) != 1 || weak[0].Unit != "き" || weak[0].Correct != 2 {
		t.Fatalf("weak window = %+v", weak)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, err := st.LoadSnapshot(ctx, DefaultSlot); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}

	snap := model.Snapshot{
		CycleID:    "c-1",
		Round:      4,
		Combo:      17,
		TotalScore: "123456789012345678901234567890.125",
		RoundScore: "42",
		Chips:      "29",
		Modifiers:  []string{"vowel_power", "vowel_power", "perfect_bake"},
		Unlocked:   []string{"level1", "level2"},
		Upgrades:   map[string]int{"oven": 3, "butter": 1},
		SavedAt:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := st.SaveSnapshot(ctx, DefaultSlot, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	got, err := st.LoadSnapshot(ctx, DefaultSlot)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got.TotalScore != snap.TotalScore || got.Combo != 17 || got.Round != 4 || !got.SavedAt.Equal(snap.SavedAt) {
		t.Fatalf("snapshot = %+v", got)
	}
	if len(got.Modifiers) != 3 || got.Modifiers[2] != "perfect_bake" || len(got.Unlocked) != 2 {
		t.Fatalf("lists = %v %v", got.Modifiers, got.Unlocked)
	}
	if got.Upgrades["oven"] != 3 || got.Upgrades["butter"] != 1 || len(got.Upgrades) != 2 {
		t.Fatalf("upgrades = %v", got.Upgrades)
	}

	snap.Round = 5
	snap.Modifiers = nil
	if err := st.SaveSnapshot(ctx, DefaultSlot, snap); err != nil {
		t.Fatalf("SaveSnapshot overwrite: %v", err)
	}
	got, err = st.LoadSnapshot(ctx, DefaultSlot)
	if err != nil || got.Round != 5 || len(got.Modifiers) != 0 {
		t.Fatalf("overwrite = %+v, %v", got, err)
	}

	if err := st.ClearSnapshot(ctx, DefaultSlot); err != nil {
		t.Fatalf("ClearSnapshot: %v", err)
	}
	if _, err := st.LoadSnapshot(ctx, DefaultSlot); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot after clear, got %v", err)
	}
}

func TestOpenAddsUpgradesColumnToOldSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE saves (
		slot TEXT PRIMARY KEY,
		cycle_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		combo INTEGER NOT NULL,
		total_score TEXT NOT NULL,
		round_score TEXT NOT NULL,
		chips TEXT NOT NULL,
		modifiers TEXT NOT NULL,
		unlocked TEXT NOT NULL,
		saved_at TEXT NOT NULL
	)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO saves VALUES ('default', 'c', 2, 0, '10', '0', '0', '[]', '["level1"]', '2026-03-01T00:00:00Z')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}()
	got, err := st.LoadSnapshot(context.Background(), DefaultSlot)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got.Round != 2 || len(got.Upgrades) != 0 {
		t.Fatalf("snapshot = %+v", got)
	}
}

func TestCorruptSnapshotIsAnError(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if _, err := st.db.ExecContext(ctx,
		`INSERT INTO saves (slot, cycle_id, round, combo, total_score, round_score, chips, modifiers, unlocked, saved_at)
		 VALUES ('default', 'c', 1, 0, '1', '0', '0', '{not json', '[]', 'yesterday')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := st.LoadSnapshot(ctx, DefaultSlot); err == nil || errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestReset(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	insertRound(t, st, time.Now(), "1", nil)
	if err := st.SaveSnapshot(ctx, DefaultSlot, model.Snapshot{CycleID: "c"}); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if err := st.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	rounds, err := st.ListRounds(ctx, model.StatsConfig{})
	if err != nil || len(rounds) != 0 {
		t.Fatalf("rounds after reset = %v, %v", rounds, err)
	}
	if _, err := st.LoadSnapshot(ctx, DefaultSlot); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/kanabake/internal/model"
	"github.com/verte-zerg/kanabake/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "kanabake.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute)
		end := start.Add(30 * time.Second)
		stats := model.RoundStats{
			CycleID:    "cycle-1",
			Round:      i + 1,
			StartedAt:  start,
			EndedAt:    end,
			Keystrokes: 40,
			Misses:     2,
			Units:      20,
			MaxCombo:   12,
			Score:      "1234.5",
			DurationMs: end.Sub(start).Milliseconds(),
		}
		units := []model.UnitStats{
			{Unit: "か", Correct: 5, Incorrect: 0},
			{Unit: "しゃ", Correct: 4, Incorrect: 1},
		}
		id, err := st.InsertRound(ctx, stats, units)
		if err != nil {
			t.Fatalf("insert round: %v", err)
		}
		ids = append(ids, id)
	}

	cfg := model.StatsConfig{Last: 2, CurveWindow: 1}
	report, err := BuildReport(ctx, st, cfg)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Rounds) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(report.Rounds))
	}
	if report.Rounds[0].RoundID != ids[1] || report.Rounds[1].RoundID != ids[2] {
		t.Fatalf("unexpected round ids: %+v", report.Rounds)
	}
	if len(report.WindowRoundIDs) != 1 || report.WindowRoundIDs[0] != ids[2] {
		t.Fatalf("unexpected window ids: %v", report.WindowRoundIDs)
	}
	if len(report.UnitAggsAll) != 2 {
		t.Fatalf("expected 2 unit aggregates, got %d", len(report.UnitAggsAll))
	}
	for _, agg := range report.UnitAggsWindow {
		if agg.Unit == "しゃ" && (agg.Correct != 4 || agg.Incorrect != 1) {
			t.Fatalf("unexpected window aggregate: %+v", agg)
		}
	}
}

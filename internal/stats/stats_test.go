package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/kanabake/internal/model"
)

func TestRoundMetrics(t *testing.T) {
	kpm, acc := RoundMetrics(90, 10, 30000)
	if kpm != 180 {
		t.Fatalf("kpm = %v, want 180", kpm)
	}
	if acc != 0.9 {
		t.Fatalf("accuracy = %v, want 0.9", acc)
	}
	if kpm, acc := RoundMetrics(5, 0, 0); kpm != 0 || acc != 0 {
		t.Fatalf("zero duration = %v %v", kpm, acc)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("avg[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("sparkline = %q", got)
	}
	if got := Sparkline([]float64{3, 3, 3}); got != "+++" {
		t.Fatalf("flat sparkline = %q", got)
	}
	if Sparkline(nil) != "" {
		t.Fatal("empty sparkline should be empty")
	}
}

func TestRenderSeriesFitsWidth(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = float64(i)
	}
	lines := RenderSeries([]Series{{Name: "KPM", Values: values}, {Name: "Accuracy", Values: values[:5]}}, 40)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if w := displayWidth(lines[0]); w != 40 {
		t.Fatalf("line width = %d, want 40: %q", w, lines[0])
	}
	if !strings.HasPrefix(lines[0], "KPM      | ") {
		t.Fatalf("label not padded: %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "| "+Sparkline(values[:5])) {
		t.Fatalf("short series should not be stretched: %q", lines[1])
	}
}

func TestRenderSummaryComparesScoresExactly(t *testing.T) {
	rounds := []model.RoundAggregate{
		{CycleID: "a", Keystrokes: 60, DurationMs: 60000, MaxCombo: 3, Score: "9e300", EndedAt: time.Unix(0, 0)},
		{CycleID: "b", Keystrokes: 120, DurationMs: 60000, MaxCombo: 9, Score: "1e301", EndedAt: time.Unix(60, 0)},
	}
	var buf bytes.Buffer
	if err := RenderSummary(&buf, rounds); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Rounds: 2 (2 cycles)", "Avg KPM: 90.00", "Best Combo: 9", "Best Round: 1.00e+301"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderUnitTableWeakestFirst(t *testing.T) {
	var buf bytes.Buffer
	err := RenderUnitTable(&buf, []model.UnitAggregate{
		{Unit: "か", Correct: 9, Incorrect: 1},
		{Unit: "ぬ", Correct: 1, Incorrect: 1},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if !strings.HasPrefix(lines[2], "ぬ") {
		t.Fatalf("weakest unit should come first: %q", lines[2])
	}
}

// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/kanabake/internal/bignum"
	"github.com/verte-zerg/kanabake/internal/model"
)

const sparkChars = " .:-=+*#%@"

// RoundMetrics computes keystrokes per minute and accuracy for a round.
func RoundMetrics(keystrokes, misses int, durationMs int64) (kpm, accuracy float64) {
	if durationMs <= 0 {
		return 0, 0
	}
	minutes := float64(durationMs) / 60000.0
	kpm = float64(keystrokes) / minutes
	den := float64(keystrokes + misses)
	if den > 0 {
		accuracy = float64(keystrokes) / den
	}
	return kpm, accuracy
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints totals across rounds. The best round is compared
// exactly, since scores outgrow float64.
func RenderSummary(w io.Writer, rounds []model.RoundAggregate) error {
	if len(rounds) == 0 {
		_, err := fmt.Fprintln(w, "No rounds found.")
		return err
	}
	var totalKPM, totalAcc float64
	bestKPM := 0.0
	maxCombo := 0
	var best bignum.Number
	cycles := map[string]struct{}{}
	for _, r := range rounds {
		kpm, acc := RoundMetrics(r.Keystrokes, r.Misses, r.DurationMs)
		totalKPM += kpm
		totalAcc += acc
		bestKPM = math.Max(bestKPM, kpm)
		maxCombo = max(maxCombo, r.MaxCombo)
		cycles[r.CycleID] = struct{}{}
		if score, err := bignum.Decimals.Parse(r.Score); err == nil {
			if best == nil || score.Cmp(best) > 0 {
				best = score
			}
		}
	}
	count := float64(len(rounds))
	lines := []string{
		"Summary",
		fmt.Sprintf("Rounds: %d (%d cycles)", len(rounds), len(cycles)),
		fmt.Sprintf("Avg KPM: %.2f", totalKPM/count),
		fmt.Sprintf("Best KPM: %.2f", bestKPM),
		fmt.Sprintf("Avg Accuracy: %.2f%%", (totalAcc/count)*100),
		fmt.Sprintf("Best Combo: %d", maxCombo),
	}
	if best != nil {
		lines = append(lines, fmt.Sprintf("Best Round: %s cookies", bignum.Format(best)))
	}
	lines = append(lines, "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints KPM, accuracy and score magnitude sparklines, each
// fitted to totalWidth columns.
func RenderCurves(w io.Writer, rounds []model.RoundAggregate, window, totalWidth int) error {
	if len(rounds) == 0 {
		return nil
	}
	kpms := make([]float64, len(rounds))
	accs := make([]float64, len(rounds))
	mags := make([]float64, len(rounds))
	for i, r := range rounds {
		kpm, acc := RoundMetrics(r.Keystrokes, r.Misses, r.DurationMs)
		kpms[i] = kpm
		accs[i] = acc * 100
		if score, err := bignum.Decimals.Parse(r.Score); err == nil && score.Sign() > 0 {
			mags[i] = score.Log10()
		}
	}
	series := []Series{
		{Name: "KPM", Values: MovingAverage(kpms, window)},
		{Name: "Accuracy", Values: MovingAverage(accs, window)},
		{Name: "log10 Score", Values: mags},
	}
	if _, err := fmt.Fprintln(w, "Curves"); err != nil {
		return err
	}
	for _, line := range RenderSeries(series, totalWidth) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderUnitTable prints per-kana aggregates, weakest first.
func RenderUnitTable(w io.Writer, aggs []model.UnitAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No kana stats found.")
		return err
	}
	type row struct {
		unit      string
		acc       float64
		latency   float64
		correct   int
		incorrect int
	}
	rows := make([]row, 0, len(aggs))
	for _, agg := range aggs {
		lat := 0.0
		if agg.LatencyCount > 0 {
			lat = float64(agg.LatencySumMs) / float64(agg.LatencyCount)
		}
		rows = append(rows, row{
			unit:      agg.Unit,
			acc:       accuracy(agg),
			latency:   lat,
			correct:   agg.Correct,
			incorrect: agg.Incorrect,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].acc == rows[j].acc {
			return rows[i].unit < rows[j].unit
		}
		return rows[i].acc < rows[j].acc
	})

	if _, err := fmt.Fprintln(w, "Per-Kana (Windowed)"); err != nil {
		return err
	}
	headers := []string{"Kana", "Accuracy", "Avg Latency (ms)", "Correct", "Incorrect"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.unit,
			fmt.Sprintf("%.2f%%", r.acc*100),
			fmt.Sprintf("%.1f", r.latency),
			fmt.Sprintf("%d", r.correct),
			fmt.Sprintf("%d", r.incorrect),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

package stats

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

const (
	minSparkWidth       = 10
	terminalWidthBackup = 80
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

// TerminalWidth returns the width of stdout, or 80 when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// RenderSeries renders one labelled sparkline per series. Labels are padded
// to a common width and the sparklines fill the rest of totalWidth; a
// non-positive totalWidth keeps one column per value.
func RenderSeries(series []Series, totalWidth int) []string {
	labelWidth := 0
	for _, s := range series {
		labelWidth = max(labelWidth, displayWidth(s.Name))
	}
	lines := make([]string, 0, len(series))
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		values := s.Values
		if totalWidth > 0 {
			values = resampleSeries(values, max(minSparkWidth, totalWidth-labelWidth-3))
		}
		label := padCell(s.Name, labelWidth, false)
		lines = append(lines, fmt.Sprintf("%s | %s", label, Sparkline(values)))
	}
	return lines
}

func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	if len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

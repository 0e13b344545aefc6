package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/kanabake/internal/romaji"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

func newStyledRune(r rune, style lipgloss.Style) styledRune {
	return styledRune{s: style.Render(string(r)), width: runewidth.RuneWidth(r), isSpace: r == ' '}
}

// buildPhraseRunes styles the kana phrase: typed units, the unit under the
// cursor (units runes wide), and the rest.
func buildPhraseRunes(phrase []rune, cursor, units int, locked bool) []styledRune {
	current := currentWordStyle
	if locked {
		current = incorrectStyle
	}
	out := make([]styledRune, 0, len(phrase))
	for i, r := range phrase {
		style := pendingStyle
		switch {
		case i < cursor:
			style = correctStyle
		case i == cursor:
			style = current.Underline(true)
		case i < cursor+units:
			style = current
		}
		out = append(out, newStyledRune(r, style))
	}
	return out
}

// buildGuideRunes renders the suggested romaji with a space between units.
// The current unit shows what has been typed so far; when the buffer follows
// a different spelling than the guide, the buffer is shown instead.
func buildGuideRunes(guide []romaji.GuideSegment, cursor int, buffer string) []styledRune {
	var out []styledRune
	for i, seg := range guide {
		if i > 0 {
			out = append(out, styledRune{s: " ", width: 1, isSpace: true})
		}
		switch {
		case seg.Start+seg.Units <= cursor:
			for _, r := range seg.Romaji {
				out = append(out, newStyledRune(r, correctStyle))
			}
		case seg.Start == cursor:
			text := seg.Romaji
			if !strings.HasPrefix(text, buffer) {
				text = buffer
			}
			typed := len([]rune(buffer))
			for j, r := range []rune(text) {
				style := currentWordStyle
				switch {
				case j < typed:
					style = correctStyle
				case j == typed:
					style = cursorStyle
				}
				out = append(out, newStyledRune(r, style))
			}
		default:
			for _, r := range seg.Romaji {
				out = append(out, newStyledRune(r, pendingStyle))
			}
		}
	}
	return out
}

// currentUnits returns how many kana the unit at cursor spans.
func currentUnits(guide []romaji.GuideSegment, cursor int) int {
	for _, seg := range guide {
		if seg.Start == cursor {
			return seg.Units
		}
	}
	return 1
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}

package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/kanabake/internal/romaji"
)

func TestBuildPhraseRunesCursor(t *testing.T) {
	runes := buildPhraseRunes([]rune("くっきー"), 1, 1, false)
	if len(runes) != 4 {
		t.Fatalf("expected 4 runes, got %d", len(runes))
	}
	if runes[0].s != correctStyle.Render("く") {
		t.Fatalf("expected correct style for typed unit")
	}
	if runes[1].s != cursorStyle.Render("っ") {
		t.Fatalf("expected cursor style for current unit")
	}
	if runes[2].s != pendingStyle.Render("き") {
		t.Fatalf("expected pending style for the rest")
	}
	if runes[0].width != 2 {
		t.Fatalf("kana width = %d, want 2", runes[0].width)
	}
}

func TestBuildPhraseRunesDigraphAndLock(t *testing.T) {
	runes := buildPhraseRunes([]rune("しゃけ"), 0, 2, true)
	if runes[0].s != incorrectStyle.Underline(true).Render("し") {
		t.Fatalf("expected locked cursor style")
	}
	if runes[1].s != incorrectStyle.Render("ゃ") {
		t.Fatalf("expected the digraph tail to share the current unit")
	}
	if runes[2].s != pendingStyle.Render("け") {
		t.Fatalf("expected pending style after the digraph")
	}
}

func TestBuildGuideRunesShowsBuffer(t *testing.T) {
	guide := romaji.BuildGuide(nil, "くっきー")
	runes := buildGuideRunes(guide, 0, "k")
	if got := len(runes); got != 9 {
		t.Fatalf("expected 9 runes for %q, got %d", "ku k ki -", got)
	}
	if runes[0].s != correctStyle.Render("k") {
		t.Fatalf("expected typed buffer in correct style")
	}
	if runes[1].s != cursorStyle.Render("u") {
		t.Fatalf("expected cursor on next letter")
	}
	if !runes[2].isSpace {
		t.Fatalf("expected unit separator")
	}
	if runes[3].s != pendingStyle.Render("k") {
		t.Fatalf("expected pending style for later units")
	}
}

func TestBuildGuideRunesAlternateSpelling(t *testing.T) {
	guide := romaji.BuildGuide(nil, "つ")
	runes := buildGuideRunes(guide, 0, "ts")
	if len(runes) != 2 {
		t.Fatalf("expected the buffer to replace the guide, got %d runes", len(runes))
	}
	if runes[1].s != correctStyle.Render("s") {
		t.Fatalf("expected buffer letters in correct style")
	}
}

func TestCurrentUnits(t *testing.T) {
	guide := romaji.BuildGuide(nil, "しゃけ")
	if got := currentUnits(guide, 0); got != 2 {
		t.Fatalf("digraph units = %d, want 2", got)
	}
	if got := currentUnits(guide, 2); got != 1 {
		t.Fatalf("single units = %d, want 1", got)
	}
}

func TestWrapStyledRunesUsesDisplayWidth(t *testing.T) {
	spaced := []styledRune{
		newStyledRune('か', pendingStyle),
		newStyledRune('き', pendingStyle),
		newStyledRune(' ', pendingStyle),
		newStyledRune('く', pendingStyle),
		newStyledRune('け', pendingStyle),
	}
	if got := strings.Count(wrapStyledRunes(spaced, 5), "\n"); got != 1 {
		t.Fatalf("expected one break at the space, got %d", got)
	}
	solid := []styledRune{
		newStyledRune('か', pendingStyle),
		newStyledRune('き', pendingStyle),
		newStyledRune('く', pendingStyle),
	}
	if got := strings.Count(wrapStyledRunes(solid, 5), "\n"); got != 1 {
		t.Fatalf("expected a hard break, got %d", got)
	}
	if strings.Contains(wrapStyledRunes(solid, 0), "\n") {
		t.Fatalf("zero width should not wrap")
	}
}

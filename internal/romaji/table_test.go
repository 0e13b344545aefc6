package romaji

import "testing"

func TestExtendOverridesAndAdds(t *testing.T) {
	base := DefaultTable()
	ext := base.Extend(map[string][]string{
		"し":   {" SHI ", "si"},
		"ヴぁ":  {"va"},
		"あいう": {"aiu"},
		"か":   {""},
	})

	if got, _ := ext.Canonical("し"); got != "shi" {
		t.Fatalf("expected override canonical shi, got %q", got)
	}
	if _, ok := ext.Lookup("ヴぁ"); !ok {
		t.Fatalf("expected new digraph to be added")
	}
	if _, ok := ext.Lookup("あいう"); ok {
		t.Fatalf("expected three-rune unit to be ignored")
	}
	if got, _ := ext.Canonical("か"); got != "ka" {
		t.Fatalf("expected empty override to be ignored, got %q", got)
	}
	if got, _ := base.Canonical("し"); got != "si" {
		t.Fatalf("expected base table untouched, got %q", got)
	}
}

func TestHas(t *testing.T) {
	table := DefaultTable()
	if !table.Has("しゅーくりーむ") {
		t.Fatalf("expected word to be typeable")
	}
	if table.Has("漢字") {
		t.Fatalf("expected kanji to be rejected")
	}
	if !table.Has("") {
		t.Fatalf("expected empty text to be typeable")
	}
}

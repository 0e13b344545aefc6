package wordlist

import (
	"testing"

	"github.com/verte-zerg/kanabake/internal/romaji"
)

func TestFilterMapped(t *testing.T) {
	filter := FilterMapped(nil)
	for _, word := range []string{"くっきー", "きゃらめる", "ぶらんまんじぇ"} {
		if !filter(word) {
			t.Fatalf("expected %q to pass", word)
		}
	}
	for _, word := range []string{"", "cookie", "漢字", "くっきー@"} {
		if filter(word) {
			t.Fatalf("expected %q to be rejected", word)
		}
	}
}

func TestFilterMappedUsesOverrides(t *testing.T) {
	table := romaji.DefaultTable().Extend(map[string][]string{"@": {"at"}})
	if !FilterMapped(table)("くっきー@") {
		t.Fatal("expected extended table to accept @")
	}
}

func TestFilterTiers(t *testing.T) {
	tiers := []Tier{
		{ID: "a", Words: []string{"あめ", "abc"}},
		{ID: "b", Words: []string{"xyz"}},
	}
	out, dropped, removed := FilterTiers(tiers, FilterMapped(nil))
	if len(out) != 1 || out[0].ID != "a" || len(out[0].Words) != 1 {
		t.Fatalf("unexpected tiers %+v", out)
	}
	if len(dropped) != 2 {
		t.Fatalf("dropped = %v", dropped)
	}
	if len(removed) != 1 || removed[0] != "b" {
		t.Fatalf("removed = %v", removed)
	}
	if len(tiers[0].Words) != 2 {
		t.Fatal("input tiers were modified")
	}
}

func TestFilterTiersRemovesUnreachableTiers(t *testing.T) {
	tiers := []Tier{
		{ID: "a", Words: []string{"あめ"}},
		{ID: "b", Requires: "a", Words: []string{"漢字"}},
		{ID: "c", Requires: "b", Words: []string{"ぱん"}},
		{ID: "d", Requires: "a", Words: []string{"たると"}},
	}
	out, _, removed := FilterTiers(tiers, FilterMapped(nil))
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "d" {
		t.Fatalf("kept tiers %+v", out)
	}
	if len(removed) != 2 || removed[0] != "b" || removed[1] != "c" {
		t.Fatalf("removed = %v", removed)
	}
}

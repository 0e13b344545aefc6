package cards

import (
	"testing"

	"github.com/verte-zerg/kanabake/internal/scoring"
)

func wordValue(t *testing.T, id string, wc scoring.WordContext) float64 {
	t.Helper()
	c, ok := Lookup(id)
	if !ok {
		t.Fatalf("card %q not found", id)
	}
	ws, ok := c.Modifier().(scoring.WordScoped)
	if !ok {
		t.Fatalf("card %q is not word scoped", id)
	}
	v, err := ws.Fn(wc)
	if err != nil {
		t.Fatalf("card %q: %v", id, err)
	}
	return v
}

func TestCatalogIDsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range All() {
		if seen[c.ID] {
			t.Fatalf("duplicate id %q", c.ID)
		}
		seen[c.ID] = true
		if c.Modifier().ModifierID() != c.ID {
			t.Fatalf("modifier id mismatch for %q", c.ID)
		}
	}
	if len(seen) != 12 {
		t.Fatalf("catalog size = %d, want 12", len(seen))
	}
}

func TestWordCards(t *testing.T) {
	cases := []struct {
		id   string
		wc   scoring.WordContext
		want float64
	}{
		{"s_assault", scoring.WordContext{Romaji: "sushi"}, 10},
		{"s_assault", scoring.WordContext{Romaji: "kasa"}, 1},
		{"speed_demon", scoring.WordContext{InputRate: 8}, 5},
		{"speed_demon", scoring.WordContext{InputRate: 7}, 1},
		{"sugar_rush", scoring.WordContext{InputRate: 3, TimeRemaining: 10}, 16},
		{"sugar_rush", scoring.WordContext{InputRate: 20, TimeRemaining: 2}, 50},
		{"sugar_rush", scoring.WordContext{InputRate: 3, TimeRemaining: 11}, 1},
		{"long_word_bonus", scoring.WordContext{Romaji: "tyokore-to"}, 3},
		{"short_word_bonus", scoring.WordContext{Romaji: "anko"}, 4},
		{"vowel_power", scoring.WordContext{Romaji: "anko"}, 2},
		{"double_letter", scoring.WordContext{Romaji: "kukki-"}, 6},
		{"double_letter", scoring.WordContext{Romaji: "anko"}, 1},
		{"first_last_same", scoring.WordContext{Romaji: "kasak"}, 8},
		{"first_last_same", scoring.WordContext{Romaji: "a"}, 1},
		{"chocolate_lover", scoring.WordContext{Phrase: "ちょこれーと"}, 100},
		{"chocolate_lover", scoring.WordContext{Phrase: "ちょこ"}, 1},
	}
	for _, tc := range cases {
		if got := wordValue(t, tc.id, tc.wc); got != tc.want {
			t.Fatalf("%s %+v: got %v, want %v", tc.id, tc.wc, got, tc.want)
		}
	}
}

func TestRuleCards(t *testing.T) {
	c, _ := Lookup("perfect_bake")
	re, ok := c.Modifier().(scoring.RoundEnd)
	if !ok {
		t.Fatal("perfect_bake should be a round-end modifier")
	}
	if v, _ := re.Fn(scoring.RoundResult{Units: 40}); v != 100 {
		t.Fatalf("perfect round = %v, want 100", v)
	}
	if v, _ := re.Fn(scoring.RoundResult{Units: 40, Misses: 1}); v != 1 {
		t.Fatalf("round with a miss = %v, want 1", v)
	}

	c, _ = Lookup("combo_master")
	if _, ok := c.Modifier().(scoring.ComboRate); !ok {
		t.Fatal("combo_master should be a combo-rate modifier")
	}
	c, _ = Lookup("critical_surge")
	cr, ok := c.Modifier().(scoring.CriticalRate)
	if !ok || cr.RateScale != 2 || cr.MultiplierBonus != 50 {
		t.Fatalf("critical_surge = %+v", c.Modifier())
	}
}

func TestComboMasterDoublesStep(t *testing.T) {
	c, _ := Lookup("combo_master")
	e := scoring.NewEngine(scoring.DefaultConfig(), scoring.WithRNG(scoring.FixedRNG(0.99)))
	got := e.ComboMultiplier(10, scoring.NewModifierSet(c.Modifier()))
	if got < 1.1999 || got > 1.2001 {
		t.Fatalf("combo multiplier = %v, want 1.2", got)
	}
}

func TestModifiersRestoresOrder(t *testing.T) {
	mods, err := Modifiers([]string{"vowel_power", "perfect_bake"})
	if err != nil {
		t.Fatalf("Modifiers: %v", err)
	}
	if len(mods) != 2 || mods[0].ModifierID() != "vowel_power" || mods[1].Kind() != scoring.KindRoundEnd {
		t.Fatalf("unexpected modifiers %+v", mods)
	}
	if _, err := Modifiers([]string{"nope"}); err == nil {
		t.Fatal("expected error for unknown card")
	}
}

func TestDraftDistinct(t *testing.T) {
	rng := scoring.NewSeededRNG(7)
	for round := 0; round < 20; round++ {
		hand := Draft(rng, 3)
		if len(hand) != 3 {
			t.Fatalf("hand size = %d", len(hand))
		}
		seen := map[string]bool{}
		for _, c := range hand {
			if seen[c.ID] {
				t.Fatalf("duplicate card %q in draft", c.ID)
			}
			seen[c.ID] = true
		}
	}
	if got := Draft(scoring.FixedRNG(0.999999), 100); len(got) != len(All()) {
		t.Fatalf("oversized draft = %d cards", len(got))
	}
	if Draft(rng, 0) != nil {
		t.Fatal("empty draft should be nil")
	}
}

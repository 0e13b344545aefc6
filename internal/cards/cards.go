// Package cards defines the draftable cards that activate scoring modifiers
// for the rest of a play cycle.
package cards

import (
	"fmt"
	"math"
	"strings"

	"github.com/verte-zerg/kanabake/internal/scoring"
)

// Rarity is informational; drafts ignore it.
type Rarity string

const (
	Common    Rarity = "common"
	Rare      Rarity = "rare"
	Epic      Rarity = "epic"
	Legendary Rarity = "legendary"
)

// Card is one draft option.
type Card struct {
	ID          string
	Name        string
	Description string
	Rarity      Rarity
	build       func(id string) scoring.Modifier
}

// Modifier returns the scoring rule the card activates.
func (c Card) Modifier() scoring.Modifier {
	return c.build(c.ID)
}

func word(fn func(scoring.WordContext) float64) func(string) scoring.Modifier {
	return func(id string) scoring.Modifier {
		return scoring.WordScoped{ID: id, Fn: func(wc scoring.WordContext) (float64, error) {
			return fn(wc), nil
		}}
	}
}

func when(cond bool, mult float64) float64 {
	if cond {
		return mult
	}
	return 1
}

var catalog = []Card{
	{
		ID:          "s_assault",
		Name:        "S Assault",
		Description: "Phrases whose romaji starts with s score x10.",
		Rarity:      Rare,
		build: word(func(wc scoring.WordContext) float64 {
			return when(strings.HasPrefix(wc.Romaji, "s"), 10)
		}),
	},
	{
		ID:          "speed_demon",
		Name:        "Speed Demon",
		Description: "x5 while typing at 8 or more keys per second.",
		Rarity:      Epic,
		build: word(func(wc scoring.WordContext) float64 {
			return when(wc.InputRate >= 8, 5)
		}),
	},
	{
		ID:          "sugar_rush",
		Name:        "Sugar Rush",
		Description: "In the last 10 seconds, x(1 + 5 x KPS) up to x50.",
		Rarity:      Legendary,
		build: word(func(wc scoring.WordContext) float64 {
			if wc.TimeRemaining > 10 {
				return 1
			}
			return math.Min(50, 1+wc.InputRate*5)
		}),
	},
	{
		ID:          "perfect_bake",
		Name:        "Perfect Bake",
		Description: "A round without a single miss pays x100 at the end.",
		Rarity:      Legendary,
		build: func(id string) scoring.Modifier {
			return scoring.RoundEnd{ID: id, Fn: func(r scoring.RoundResult) (float64, error) {
				return when(r.Misses == 0 && r.Units > 0, 100), nil
			}}
		},
	},
	{
		ID:          "combo_master",
		Name:        "Combo Master",
		Description: "Combo multiplier grows +0.2 every 10 units instead of +0.1.",
		Rarity:      Rare,
		build: func(id string) scoring.Modifier {
			return scoring.ComboRate{ID: id, StepBonus: 0.1}
		},
	},
	{
		ID:          "critical_surge",
		Name:        "Critical Surge",
		Description: "Critical rate x2 and critical multiplier +50.",
		Rarity:      Epic,
		build: func(id string) scoring.Modifier {
			return scoring.CriticalRate{ID: id, RateScale: 2, MultiplierBonus: 50}
		},
	},
	{
		ID:          "long_word_bonus",
		Name:        "Long Word Bonus",
		Description: "Phrases of 8 or more romaji letters score x3.",
		Rarity:      Common,
		build: word(func(wc scoring.WordContext) float64 {
			return when(len(wc.Romaji) >= 8, 3)
		}),
	},
	{
		ID:          "short_word_bonus",
		Name:        "Short Word Bonus",
		Description: "Phrases of 5 or fewer romaji letters score x4.",
		Rarity:      Common,
		build: word(func(wc scoring.WordContext) float64 {
			return when(len(wc.Romaji) <= 5, 4)
		}),
	},
	{
		ID:          "vowel_power",
		Name:        "Vowel Power",
		Description: "+0.5 for every vowel in the romaji.",
		Rarity:      Common,
		build: word(func(wc scoring.WordContext) float64 {
			return 1 + float64(countVowels(wc.Romaji))*0.5
		}),
	},
	{
		ID:          "double_letter",
		Name:        "Double Letter",
		Description: "Romaji with a repeated letter (like kukki-) scores x6.",
		Rarity:      Rare,
		build: word(func(wc scoring.WordContext) float64 {
			return when(hasDoubleLetter(wc.Romaji), 6)
		}),
	},
	{
		ID:          "first_last_same",
		Name:        "First and Last",
		Description: "Romaji that starts and ends with the same letter scores x8.",
		Rarity:      Epic,
		build: word(func(wc scoring.WordContext) float64 {
			r := wc.Romaji
			return when(len(r) >= 2 && r[0] == r[len(r)-1], 8)
		}),
	},
	{
		ID:          "chocolate_lover",
		Name:        "Chocolate Lover",
		Description: "Typing ちょこれーと scores x100.",
		Rarity:      Legendary,
		build: word(func(wc scoring.WordContext) float64 {
			return when(wc.Phrase == "ちょこれーと", 100)
		}),
	},
}

// All returns every card in catalog order.
func All() []Card {
	out := make([]Card, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a card by ID.
func Lookup(id string) (Card, bool) {
	for _, c := range catalog {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// Modifiers rebuilds the modifiers for the given card IDs, in order.
func Modifiers(ids []string) ([]scoring.Modifier, error) {
	mods := make([]scoring.Modifier, 0, len(ids))
	for _, id := range ids {
		c, ok := Lookup(id)
		if !ok {
			return nil, fmt.Errorf("unknown card %q", id)
		}
		mods = append(mods, c.Modifier())
	}
	return mods, nil
}

// Draft offers n distinct cards chosen uniformly. n is clamped to the
// catalog size.
func Draft(rng scoring.RandomSource, n int) []Card {
	pool := All()
	if n > len(pool) {
		n = len(pool)
	}
	if n <= 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		j := i + pick(rng, len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

func pick(rng scoring.RandomSource, n int) int {
	idx := int(rng.Float64() * float64(n))
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

func countVowels(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'a', 'e', 'i', 'o', 'u':
			n++
		}
	}
	return n
}

func hasDoubleLetter(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == s[i+1] && s[i] >= 'a' && s[i] <= 'z' {
			return true
		}
	}
	return false
}

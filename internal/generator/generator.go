// Package generator picks the next phrase from the unlocked word tiers.
package generator

import (
	"errors"
	"math/rand"
	"time"

	"github.com/verte-zerg/kanabake/internal/wordlist"
)

// ErrNoTiers is returned when none of the requested tiers exist.
var ErrNoTiers = errors.New("generator: no unlocked tier has words")

// Generator produces phrases. It is not safe for concurrent use.
type Generator struct {
	rnd    *rand.Rand
	tiers  []wordlist.Tier
	weak   map[rune]struct{}
	factor float64
}

// New returns a Generator seeded with the current time.
func New(tiers []wordlist.Tier) *Generator {
	return NewSeeded(tiers, time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(tiers []wordlist.Tier, seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed)), tiers: tiers}
}

// SetWeak biases word selection toward words containing weak kana. A
// non-positive factor or empty set disables the bias.
func (g *Generator) SetWeak(weak map[rune]struct{}, factor float64) {
	g.weak = weak
	g.factor = factor
}

// Next picks an unlocked tier uniformly, then a word from it.
func (g *Generator) Next(unlocked []string) (wordlist.Phrase, error) {
	var pool []wordlist.Tier
	for _, id := range unlocked {
		if t, ok := wordlist.Find(g.tiers, id); ok && len(t.Words) > 0 {
			pool = append(pool, t)
		}
	}
	if len(pool) == 0 {
		return wordlist.Phrase{}, ErrNoTiers
	}
	tier := pool[g.rnd.Intn(len(pool))]
	var word string
	if g.factor > 0 && len(g.weak) > 0 {
		word = g.pickWeighted(tier.Words)
	} else {
		word = tier.Words[g.rnd.Intn(len(tier.Words))]
	}
	return wordlist.Phrase{Text: word, Multiplier: tier.Multiplier, Tier: tier.ID}, nil
}

func (g *Generator) pickWeighted(words []string) string {
	weights := make([]float64, len(words))
	total := 0.0
	for i, word := range words {
		w := 1.0 + float64(WeakCount(word, g.weak))*g.factor
		weights[i] = w
		total += w
	}

	r := g.rnd.Float64() * total
	acc := 0.0
	for j, w := range weights {
		acc += w
		if r <= acc {
			return words[j]
		}
	}
	return words[len(words)-1]
}

// WeakCount returns how many runes of word are in weak.
func WeakCount(word string, weak map[rune]struct{}) int {
	n := 0
	for _, r := range word {
		if _, ok := weak[r]; ok {
			n++
		}
	}
	return n
}

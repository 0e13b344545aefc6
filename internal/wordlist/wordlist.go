// Package wordlist loads the tiered kana word lists.
package wordlist

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/kanabake/internal/bignum"
)

//go:embed tiers.yaml
var defaultTiers []byte

// ErrEmptyTiers is returned when a tier file defines no usable tier.
var ErrEmptyTiers = errors.New("wordlist: no tiers defined")

// Tier is one unlockable word list.
type Tier struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Multiplier float64  `yaml:"multiplier"`
	Cost       string   `yaml:"cost"`
	Requires   string   `yaml:"requires,omitempty"`
	Words      []string `yaml:"words"`
}

// Phrase is one word handed to the matcher together with its tier's
// multiplier.
type Phrase struct {
	Text       string
	Multiplier float64
	Tier       string
}

type tierFile struct {
	Tiers []Tier `yaml:"tiers"`
}

// CostIn returns the unlock cost in the given representation.
func (t Tier) CostIn(num bignum.Arithmetic) (bignum.Number, error) {
	if strings.TrimSpace(t.Cost) == "" {
		return num.Zero(), nil
	}
	return num.Parse(t.Cost)
}

// DefaultTiers returns the built-in tiers.
func DefaultTiers() ([]Tier, error) {
	return ParseTiers(bytes.NewReader(defaultTiers))
}

// DefaultTiersYAML returns the built-in tier file, used as a template.
func DefaultTiersYAML() []byte {
	out := make([]byte, len(defaultTiers))
	copy(out, defaultTiers)
	return out
}

// LoadTiers reads a tier file from disk.
func LoadTiers(path string) ([]Tier, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only tier file.
			_ = cerr
		}
	}()

	tiers, err := ParseTiers(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tiers, nil
}

// ParseTiers decodes and validates a tier file. Unknown keys are rejected.
func ParseTiers(r io.Reader) ([]Tier, error) {
	var tf tierFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyTiers
		}
		return nil, fmt.Errorf("decode tiers: %w", err)
	}
	if len(tf.Tiers) == 0 {
		return nil, ErrEmptyTiers
	}

	seen := make(map[string]bool, len(tf.Tiers))
	for i := range tf.Tiers {
		t := &tf.Tiers[i]
		t.ID = strings.TrimSpace(t.ID)
		if t.ID == "" {
			return nil, fmt.Errorf("tier %d: missing id", i+1)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("tier %q: duplicate id", t.ID)
		}
		if t.Multiplier <= 0 {
			return nil, fmt.Errorf("tier %q: multiplier must be > 0", t.ID)
		}
		cost, err := t.CostIn(bignum.Decimals)
		if err != nil {
			return nil, fmt.Errorf("tier %q: cost: %w", t.ID, err)
		}
		if cost.Sign() < 0 {
			return nil, fmt.Errorf("tier %q: cost must be >= 0", t.ID)
		}
		if t.Requires != "" && !seen[t.Requires] {
			return nil, fmt.Errorf("tier %q: requires unknown or later tier %q", t.ID, t.Requires)
		}
		words := t.Words[:0]
		for _, w := range t.Words {
			w = strings.TrimSpace(w)
			if w != "" {
				words = append(words, w)
			}
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("tier %q: word list is empty", t.ID)
		}
		t.Words = words
		if t.Name == "" {
			t.Name = t.ID
		}
		seen[t.ID] = true
	}
	return tf.Tiers, nil
}

// Find returns the tier with the given ID.
func Find(tiers []Tier, id string) (Tier, bool) {
	for _, t := range tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// Starting returns the IDs of tiers that are free and have no prerequisite.
func Starting(tiers []Tier) []string {
	var ids []string
	for _, t := range tiers {
		cost, err := t.CostIn(bignum.Decimals)
		if err != nil || cost.Sign() != 0 || t.Requires != "" {
			continue
		}
		ids = append(ids, t.ID)
	}
	if len(ids) == 0 && len(tiers) > 0 {
		ids = append(ids, tiers[0].ID)
	}
	return ids
}

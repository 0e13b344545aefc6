// Package scoring composes per-unit rewards from combo, critical hits,
// pluggable modifiers and the phrase multiplier.
package scoring

import "errors"

var (
	// ErrModifierPanic wraps a panic raised inside a modifier function.
	ErrModifierPanic = errors.New("modifier panicked")
	// ErrModifierValue reports a modifier result that cannot scale a score.
	ErrModifierValue = errors.New("modifier returned an invalid multiplier")
)

// Kind tags the modifier variants.
type Kind int

const (
	KindWordScoped Kind = iota
	KindComboRate
	KindCriticalRate
	KindRoundEnd
)

func (k Kind) String() string {
	switch k {
	case KindWordScoped:
		return "word"
	case KindComboRate:
		return "combo-rate"
	case KindCriticalRate:
		return "critical-rate"
	case KindRoundEnd:
		return "round-end"
	default:
		return "unknown"
	}
}

// Modifier is a closed set of scoring rules: WordScoped, ComboRate,
// CriticalRate and RoundEnd. Consumers dispatch with a type switch.
type Modifier interface {
	ModifierID() string
	Kind() Kind
	modifier()
}

// WordContext is the input of a word-scoped modifier.
type WordContext struct {
	Phrase string
	// Romaji is the canonical spelling of Phrase.
	Romaji        string
	Unit          string
	BaseScore     float64
	InputRate     float64
	TimeRemaining int
	Combo         int
}

// WordFunc scales BaseScore. It must be free of side effects.
type WordFunc func(WordContext) (float64, error)

// RoundResult summarizes a finished round for round-end modifiers.
type RoundResult struct {
	Misses   int
	MaxCombo int
	Units    int
}

// RoundFunc returns the multiplier applied to a round's total.
type RoundFunc func(RoundResult) (float64, error)

// WordScoped multiplies every reward by the value its function returns.
type WordScoped struct {
	ID string
	Fn WordFunc
}

// ComboRate adds StepBonus to the per-span combo increment.
type ComboRate struct {
	ID        string
	StepBonus float64
}

// CriticalRate adjusts the critical roll. RateBonus is added to the base rate
// before RateScale multiplies it; zero RateScale means no scaling.
type CriticalRate struct {
	ID              string
	RateBonus       float64
	RateScale       float64
	MultiplierBonus float64
}

// RoundEnd scales the round total once, when the round finishes. It is never
// evaluated per keystroke.
type RoundEnd struct {
	ID string
	Fn RoundFunc
}

func (m WordScoped) ModifierID() string   { return m.ID }
func (m ComboRate) ModifierID() string    { return m.ID }
func (m CriticalRate) ModifierID() string { return m.ID }
func (m RoundEnd) ModifierID() string     { return m.ID }

func (WordScoped) Kind() Kind   { return KindWordScoped }
func (ComboRate) Kind() Kind    { return KindComboRate }
func (CriticalRate) Kind() Kind { return KindCriticalRate }
func (RoundEnd) Kind() Kind     { return KindRoundEnd }

func (WordScoped) modifier()   {}
func (ComboRate) modifier()    {}
func (CriticalRate) modifier() {}
func (RoundEnd) modifier()     {}

// ModifierSet is an ordered collection of active modifiers. A nil set is
// empty. Duplicates are kept and stack.
type ModifierSet struct {
	items []Modifier
}

// NewModifierSet returns a set holding mods in order.
func NewModifierSet(mods ...Modifier) *ModifierSet {
	s := &ModifierSet{}
	for _, m := range mods {
		s.Add(m)
	}
	return s
}

// Add appends a modifier. Nil modifiers are ignored.
func (s *ModifierSet) Add(m Modifier) {
	if m == nil {
		return
	}
	s.items = append(s.items, m)
}

// Reset removes every modifier.
func (s *ModifierSet) Reset() {
	s.items = nil
}

// Len returns the number of modifiers.
func (s *ModifierSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// All returns the modifiers in registration order.
func (s *ModifierSet) All() []Modifier {
	if s == nil {
		return nil
	}
	out := make([]Modifier, len(s.items))
	copy(out, s.items)
	return out
}

// IDs returns modifier identifiers in registration order.
func (s *ModifierSet) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.items))
	for _, m := range s.items {
		ids = append(ids, m.ModifierID())
	}
	return ids
}

// Has reports whether a modifier with the given ID is active.
func (s *ModifierSet) Has(id string) bool {
	if s == nil {
		return false
	}
	for _, m := range s.items {
		if m.ModifierID() == id {
			return true
		}
	}
	return false
}

package wordlist

import "github.com/verte-zerg/kanabake/internal/romaji"

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterMapped keeps words whose every kana the table can encode.
func FilterMapped(table *romaji.Table) FilterFunc {
	if table == nil {
		table = romaji.DefaultTable()
	}
	return func(word string) bool {
		return word != "" && table.Has(word)
	}
}

// FilterTiers applies keep to every tier's words. Tiers left without words
// are removed, and so is every tier whose requirement was removed, since it
// could never be unlocked. It returns the kept tiers, the dropped words and
// the removed tier IDs.
func FilterTiers(tiers []Tier, keep FilterFunc) ([]Tier, []string, []string) {
	var droppedWords, droppedTiers []string
	kept := map[string]bool{}
	out := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		words := make([]string, 0, len(t.Words))
		for _, w := range t.Words {
			if keep(w) {
				words = append(words, w)
			} else {
				droppedWords = append(droppedWords, w)
			}
		}
		if len(words) == 0 || (t.Requires != "" && !kept[t.Requires]) {
			droppedTiers = append(droppedTiers, t.ID)
			continue
		}
		t.Words = words
		kept[t.ID] = true
		out = append(out, t)
	}
	return out, droppedWords, droppedTiers
}

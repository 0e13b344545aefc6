package stats

import (
	"sort"

	"github.com/verte-zerg/kanabake/internal/model"
)

// SelectWeakUnits returns the kana runes of the lowest-accuracy units.
// Digraph units contribute both of their runes.
func SelectWeakUnits(aggs []model.UnitAggregate, top int) map[rune]struct{} {
	weakSet := map[rune]struct{}{}
	if len(aggs) == 0 {
		return weakSet
	}
	candidates := make([]model.UnitAggregate, len(aggs))
	copy(candidates, aggs)
	sort.Slice(candidates, func(i, j int) bool {
		ai := accuracy(candidates[i])
		aj := accuracy(candidates[j])
		if ai == aj {
			return candidates[i].Unit < candidates[j].Unit
		}
		return ai < aj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	for _, c := range candidates[:top] {
		for _, r := range c.Unit {
			weakSet[r] = struct{}{}
		}
	}
	return weakSet
}

func accuracy(agg model.UnitAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(total)
}

package stats

import (
	"sort"

	"github.com/verte-zerg/kanabake/internal/model"
)

// TopUnitsByFrequency returns the n most practised kana units.
func TopUnitsByFrequency(aggs []model.UnitAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	sorted := make([]model.UnitAggregate, len(aggs))
	copy(sorted, aggs)
	sort.Slice(sorted, func(i, j int) bool {
		ti := sorted[i].Correct + sorted[i].Incorrect
		tj := sorted[j].Correct + sorted[j].Incorrect
		if ti == tj {
			return sorted[i].Unit < sorted[j].Unit
		}
		return ti > tj
	})
	n = min(n, len(sorted))
	out := make([]string, 0, n)
	for _, agg := range sorted[:n] {
		out = append(out, agg.Unit)
	}
	return out
}

// FilterUnits keeps aggregates whose unit is in keep. An empty keep list
// returns aggs unchanged.
func FilterUnits(aggs []model.UnitAggregate, keep []string) []model.UnitAggregate {
	if len(keep) == 0 {
		return aggs
	}
	set := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		set[k] = struct{}{}
	}
	out := make([]model.UnitAggregate, 0, len(keep))
	for _, agg := range aggs {
		if _, ok := set[agg.Unit]; ok {
			out = append(out, agg)
		}
	}
	return out
}

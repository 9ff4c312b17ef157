package analytics

import (
	"sort"

	"PremiumSentinel/internal/model"
)

// Filter narrows an enriched chain for display. Nil thresholds are not applied.
type Filter struct {
	Strategy  model.Strategy
	MinReturn *float64
	MinOI     *int64
	MinVolume *int64
}

// FilterChain keeps the rows of the option type the strategy sells that
// pass every set threshold, sorted by annualized return, highest first.
func FilterChain(rows []model.EnrichedContract, f Filter) []model.EnrichedContract {
	want := f.Strategy.OptionType()
	out := make([]model.EnrichedContract, 0, len(rows))
	for _, r := range rows {
		if r.Type != want {
			continue
		}
		if f.MinReturn != nil && r.AnnReturn < *f.MinReturn {
			continue
		}
		if f.MinOI != nil && r.OpenInterest < *f.MinOI {
			continue
		}
		if f.MinVolume != nil && r.Volume < *f.MinVolume {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AnnReturn > out[j].AnnReturn
	})
	return out
}

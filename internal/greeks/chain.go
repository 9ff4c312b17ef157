package greeks

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"PremiumSentinel/internal/model"
)

// ComputeChain returns a copy of chain in which every row without
// provider-supplied Greeks is priced against underlying. Rows that already
// carry Greeks are left untouched and rows that cannot be priced keep nil.
// Rows are independent, so they are evaluated concurrently.
func ComputeChain(chain []model.OptionContract, underlying, rate float64) []model.OptionContract {
	out := make([]model.OptionContract, len(chain))
	copy(out, chain)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range out {
		if out[i].Greeks != nil {
			continue
		}
		g.Go(func() error {
			row := &out[i]
			res, ok := Compute(Input{
				Spot:   underlying,
				Strike: row.Strike,
				Years:  YearsToExpiry(row.DTE),
				Rate:   rate,
				Vol:    row.ImpliedVolatility,
				Type:   row.Type,
			})
			if ok {
				row.Greeks = &res
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

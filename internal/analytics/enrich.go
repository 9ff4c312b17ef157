package analytics

import (
	"math"

	"PremiumSentinel/internal/config"
	"PremiumSentinel/internal/model"
)

// Enrich returns a derived copy of chain with mid, annualized return and
// the return, delta and liquidity flags. The input is never mutated.
func Enrich(chain []model.OptionContract, price float64, cfg *config.Config) []model.EnrichedContract {
	if len(chain) == 0 {
		return nil
	}
	out := make([]model.EnrichedContract, len(chain))
	for i, c := range chain {
		out[i] = enrichRow(c, price, cfg)
	}
	return out
}

func enrichRow(c model.OptionContract, price float64, cfg *config.Config) model.EnrichedContract {
	liq := cfg.Liquidity
	mid := Mid(c.Bid, c.Ask)
	ann := AnnualizedReturn(mid, price, c.DTE)

	band, focus := cfg.DeltaBands.ShortPuts, cfg.DeltaBands.ShortPutsFocus
	if c.Type == model.Call {
		band, focus = cfg.DeltaBands.ShortCalls, cfg.DeltaBands.ShortCallsFocus
	}
	delta, known := c.Delta()
	known = known && !math.IsNaN(delta)

	return model.EnrichedContract{
		OptionContract:    c,
		Mid:               mid,
		AnnReturn:         ann,
		ReturnOK:          ann >= cfg.AnnualizedReturnTarget,
		DeltaOK:           known && band.Contains(delta),
		DeltaInFocus:      known && focus.Contains(delta),
		LiquidityOK:       c.OpenInterest >= liq.MinOI && c.Volume >= liq.MinVolume,
		LiquidityMarginal: (c.OpenInterest < liq.MinOI && c.OpenInterest >= liq.MarginalOI) || (c.Volume < liq.MinVolume && c.Volume > 0),
	}
}

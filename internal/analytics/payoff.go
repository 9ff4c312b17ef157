package analytics

import (
	"math"

	"PremiumSentinel/internal/model"
)

// DefaultPayoffPoints is used when PayoffTable is asked for no points.
const DefaultPayoffPoints = 50

// PayoffTable builds the expiry P/L of a short call or put over prices
// spanning 70% to 130% of the current underlying.
func PayoffTable(typ model.OptionType, strike, premium, price float64, points int) model.Payoff {
	if points <= 0 {
		points = DefaultPayoffPoints
	}
	lo, hi := price*0.70, price*1.30
	step := 0.0
	if points > 1 {
		step = (hi - lo) / float64(points-1)
	}

	out := model.Payoff{Points: make([]model.PayoffPoint, points)}
	for i := range out.Points {
		p := lo + float64(i)*step
		if i == points-1 && points > 1 {
			p = hi
		}
		var intrinsic float64
		if typ == model.Call {
			intrinsic = math.Max(0, p-strike)
		} else {
			intrinsic = math.Max(0, strike-p)
		}
		out.Points[i] = model.PayoffPoint{Price: round(p, 2), PnL: round(premium-intrinsic, 2)}
	}

	if typ == model.Call {
		out.Breakeven = round(strike+premium, 2)
	} else {
		out.Breakeven = round(strike-premium, 2)
	}
	return out
}

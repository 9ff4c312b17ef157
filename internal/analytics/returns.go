// Package analytics derives premium-selling metrics from option chains.
package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

// AnnualizedReturn is the premium collected as a percentage of the
// underlying, scaled to a 365-day year and rounded to 2 decimals.
// Any non-positive input yields 0.
func AnnualizedReturn(premium, price float64, dte int) float64 {
	if premium <= 0 || price <= 0 || dte <= 0 {
		return 0
	}
	return round(premium/price*(365.0/float64(dte))*100, 2)
}

// IVRank places current within its 52-week [low, high] range, in percent
// rounded to 1 decimal. A degenerate range yields 0.
func IVRank(current, high, low float64) float64 {
	if high <= low || high == 0 {
		return 0
	}
	return round((current-low)/(high-low)*100, 1)
}

// Mid is the bid/ask midpoint rounded to 4 decimals.
func Mid(bid, ask float64) float64 {
	return round((bid+ask)/2, 4)
}

func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

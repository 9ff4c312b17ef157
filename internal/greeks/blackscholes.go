// Package greeks prices option sensitivities with the Black-Scholes model.
package greeks

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat/distuv"

	"PremiumSentinel/internal/model"
)

// DaysPerYear converts days to expiry into model time.
const DaysPerYear = 365.0

// Input is one contract to price.
type Input struct {
	Spot   float64 // underlying price
	Strike float64
	Years  float64 // time to expiry in years
	Rate   float64 // continuously compounded risk-free rate
	Vol    float64 // implied volatility as a decimal, 0.65 = 65%
	Type   model.OptionType
}

// YearsToExpiry converts whole days to expiry into years.
func YearsToExpiry(dte int) float64 {
	return float64(dte) / DaysPerYear
}

// Compute returns delta, gamma, theta (per day) and vega (per IV point).
// ok is false when the contract cannot be priced: non-positive time,
// volatility, spot or strike, or a non-finite intermediate result.
func Compute(in Input) (g model.Greeks, ok bool) {
	if in.Years <= 0 || in.Vol <= 0 || in.Spot <= 0 || in.Strike <= 0 {
		return model.Greeks{}, false
	}

	n := distuv.UnitNormal
	sqrtT := math.Sqrt(in.Years)
	volSqrtT := in.Vol * sqrtT
	d1 := (math.Log(in.Spot/in.Strike) + (in.Rate+in.Vol*in.Vol/2)*in.Years) / volSqrtT
	d2 := d1 - volSqrtT

	pdf := n.Prob(d1)
	discount := in.Rate * in.Strike * math.Exp(-in.Rate*in.Years)
	decay := -in.Spot * pdf * in.Vol / (2 * sqrtT)

	var delta, theta float64
	switch in.Type {
	case model.Call:
		delta = n.CDF(d1)
		theta = (decay - discount*n.CDF(d2)) / DaysPerYear
	case model.Put:
		delta = n.CDF(d1) - 1
		theta = (decay + discount*n.CDF(-d2)) / DaysPerYear
	default:
		return model.Greeks{}, false
	}
	gamma := pdf / (in.Spot * volSqrtT)
	vega := in.Spot * pdf * sqrtT / 100

	for _, v := range []float64{delta, gamma, theta, vega} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return model.Greeks{}, false
		}
	}
	return model.Greeks{
		Delta: round(delta, 4),
		Gamma: round(gamma, 6),
		Theta: round(theta, 4),
		Vega:  round(vega, 4),
	}, true
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

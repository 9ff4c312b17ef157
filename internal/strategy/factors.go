// Package strategy classifies market regimes and option contracts into
// green/yellow/red traffic lights for premium sellers.
package strategy

import (
	"PremiumSentinel/internal/config"
	"PremiumSentinel/internal/model"
)

// EvaluateVIX classifies the VIX level against the configured regime.
func EvaluateVIX(level float64, cfg *config.Config) model.TrafficLight {
	green, red := cfg.VIXRegime.Green, cfg.VIXRegime.Red
	switch {
	case green.Contains(level):
		return model.TrafficLight{Color: model.Green, Reason: "Favorable for premium selling"}
	case level >= red:
		return model.TrafficLight{Color: model.Red, Reason: "Extreme stress – consider reducing size or pausing"}
	case level < green.Low():
		return model.TrafficLight{Color: model.Yellow, Reason: "Low volatility – thin premiums"}
	default:
		return model.TrafficLight{Color: model.Yellow, Reason: "Elevated risk – proceed with caution"}
	}
}

// EvaluateIndex classifies an index proxy's technicals for the strategy.
// Short calls favor a weakening, overbought index; cash-secured puts favor
// a pullback inside an uptrend.
func EvaluateIndex(snap model.TechnicalSnapshot, s model.Strategy, cfg *config.Config) model.TrafficLight {
	th := cfg.RSIThresholds
	strongUptrend := snap.AboveSMA20 && snap.AboveSMA50 && snap.AboveSMA100

	if s == model.CashSecuredPuts {
		strongDowntrend := !snap.AboveSMA50 && !snap.AboveSMA100
		switch {
		case strongUptrend && snap.RSI14 <= th.NeutralLow:
			return model.TrafficLight{Color: model.Green, Reason: "Favorable for CSP – uptrend with pullback"}
		case strongDowntrend && snap.RSI14 < th.NeutralLow:
			return model.TrafficLight{Color: model.Red, Reason: "Avoid CSP – falling knife risk"}
		default:
			return model.TrafficLight{Color: model.Yellow, Reason: "Mixed signals for CSP – proceed with caution"}
		}
	}

	weakening := (!snap.AboveSMA20 && !snap.AboveSMA50) ||
		(snap.SMA20 < snap.SMA50 && snap.SMA20 > 0 && snap.SMA50 > 0)
	switch {
	case weakening && snap.RSI14 >= th.NeutralHigh:
		return model.TrafficLight{Color: model.Green, Reason: "Favorable for Short Calls – weakening trend + overbought"}
	case strongUptrend && snap.RSI14 < th.NeutralHigh:
		return model.TrafficLight{Color: model.Red, Reason: "Avoid Short Calls – strong uptrend still building"}
	default:
		return model.TrafficLight{Color: model.Yellow, Reason: "Mixed signals for Short Calls – proceed with caution"}
	}
}

// IndexColorFor picks the index regime an ETF is judged against.
func IndexColorFor(symbol string, sp, ndx model.Color, cfg *config.Config) model.Color {
	if cfg.TracksNasdaq(symbol) {
		return ndx
	}
	return sp
}

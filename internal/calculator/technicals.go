package calculator

import (
	"math"

	"PremiumSentinel/internal/config"
	"PremiumSentinel/internal/model"
)

const rsiPeriod = 14

// DefaultSnapshot is returned when no price history is available yet.
func DefaultSnapshot() model.TechnicalSnapshot {
	return model.TechnicalSnapshot{RSI14: 50, RSILabel: "N/A"}
}

// RSILabel classifies an RSI reading.
func RSILabel(rsi float64, th config.RSIThresholds) string {
	switch {
	case rsi >= th.Overbought:
		return "Overbought"
	case rsi <= th.Oversold:
		return "Oversold"
	case rsi >= th.NeutralLow && rsi <= th.NeutralHigh:
		return "Neutral"
	case rsi > th.NeutralHigh:
		return "Bullish"
	default:
		return "Bearish"
	}
}

// ComputeTechnicals derives SMA20/50/100 and RSI14 from ascending daily bars.
// An SMA without enough history is reported as 0 with both flags false;
// an undefined RSI is reported as 50.
func ComputeTechnicals(bars []model.OHLCV, th config.RSIThresholds) model.TechnicalSnapshot {
	if len(bars) == 0 {
		return DefaultSnapshot()
	}
	closes := model.Closes(bars)
	price := closes[len(closes)-1]

	snap := model.TechnicalSnapshot{Price: round2(price)}

	if sma, err := CalculateSMA(closes, 20); err == nil {
		snap.SMA20 = round2(sma)
		snap.AboveSMA20, snap.BelowSMA20 = price > sma, price < sma
	}
	if sma, err := CalculateSMA(closes, 50); err == nil {
		snap.SMA50 = round2(sma)
		snap.AboveSMA50, snap.BelowSMA50 = price > sma, price < sma
	}
	if sma, err := CalculateSMA(closes, 100); err == nil {
		snap.SMA100 = round2(sma)
		snap.AboveSMA100, snap.BelowSMA100 = price > sma, price < sma
	}

	rsi, ok := CalculateRSI(closes, rsiPeriod)
	if !ok {
		rsi = 50
	}
	snap.RSI14 = round2(rsi)
	snap.RSILabel = RSILabel(rsi, th)
	return snap
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

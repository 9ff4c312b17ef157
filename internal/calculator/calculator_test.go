package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PremiumSentinel/internal/config"
	"PremiumSentinel/internal/model"
)

func barsFromCloses(closes []float64) []model.OHLCV {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestCalculateSMA(t *testing.T) {
	sma, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, sma, 1e-12)

	_, err = CalculateSMA([]float64{1, 2}, 3)
	assert.Error(t, err, "never extrapolated from a short window")

	_, err = CalculateSMA([]float64{1, 2, 3}, 0)
	assert.Error(t, err)
}

func TestCalculateRSI_HandComputedSmallPeriod(t *testing.T) {
	// alpha = 0.5: bar1 gain 1 -> avgGain .5, avgLoss 0 -> 100;
	// bar2 loss 1 -> avgGain .25, avgLoss .5 -> RS .5 -> 33.33
	series := CalculateRSISeries([]float64{10, 11, 10}, 2)
	assert.True(t, math.IsNaN(series[0]))
	assert.Equal(t, 100.0, series[1])
	assert.InDelta(t, 100.0/3.0, series[2], 1e-9)
}

func TestCalculateRSI_GainOnlySaturatesTo100(t *testing.T) {
	rsi, ok := CalculateRSI(linear(60, 100, 1), 14)
	require.True(t, ok)
	assert.Equal(t, 100.0, rsi, "zero average loss pins RSI at 100")
}

func TestCalculateRSI_LossOnlyConvergesToZero(t *testing.T) {
	rsi, ok := CalculateRSI(linear(60, 200, -1), 14)
	require.True(t, ok)
	assert.Equal(t, 0.0, rsi)
}

func TestCalculateRSI_FlatSeriesIsUndefined(t *testing.T) {
	_, ok := CalculateRSI(linear(30, 50, 0), 14)
	assert.False(t, ok)
}

func TestCalculateRSI_RequiresPeriodObservations(t *testing.T) {
	_, ok := CalculateRSI(linear(13, 100, 1), 14)
	assert.False(t, ok)
	_, ok = CalculateRSI(linear(14, 100, 1), 14)
	assert.True(t, ok)
}

func TestCalculateRSI_BoundedProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("RSI stays within [0, 100]", prop.ForAll(
		func(closes []float64) bool {
			for _, v := range CalculateRSISeries(closes, 14) {
				if math.IsNaN(v) {
					continue
				}
				if v < 0 || v > 100 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(60, gen.Float64Range(1, 500)),
	))
	properties.TestingRun(t)
}

func TestCalculateRange(t *testing.T) {
	high, low, err := CalculateRange([]float64{5, 9, 1, 7, 3}, 3)
	require.NoError(t, err)
	assert.Equal(t, 7.0, high)
	assert.Equal(t, 1.0, low)

	high, low, err = CalculateRange([]float64{5, 9, 1}, 0)
	require.NoError(t, err)
	assert.Equal(t, 9.0, high)
	assert.Equal(t, 1.0, low)

	_, _, err = CalculateRange(nil, 10)
	assert.Error(t, err)
}

func TestRSILabel(t *testing.T) {
	th := config.Default().RSIThresholds
	tests := []struct {
		rsi   float64
		label string
	}{
		{85, "Overbought"},
		{70, "Overbought"},
		{65, "Bullish"},
		{60, "Neutral"},
		{50, "Neutral"},
		{40, "Neutral"},
		{35, "Bearish"},
		{30, "Oversold"},
		{10, "Oversold"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.label, RSILabel(tt.rsi, th), "rsi %.0f", tt.rsi)
	}
}

func TestComputeTechnicals_EmptyInput(t *testing.T) {
	snap := ComputeTechnicals(nil, config.Default().RSIThresholds)
	assert.Equal(t, DefaultSnapshot(), snap)
	assert.Equal(t, 50.0, snap.RSI14)
	assert.Equal(t, "N/A", snap.RSILabel)
	assert.False(t, snap.AboveSMA20)
	assert.False(t, snap.BelowSMA20)
}

func TestComputeTechnicals_UptrendAboveEveryAverage(t *testing.T) {
	snap := ComputeTechnicals(barsFromCloses(linear(120, 100, 0.5)), config.Default().RSIThresholds)

	assert.Equal(t, 159.5, snap.Price)
	assert.True(t, snap.AboveSMA20)
	assert.True(t, snap.AboveSMA50)
	assert.True(t, snap.AboveSMA100)
	assert.False(t, snap.BelowSMA100)
	assert.InDelta(t, 154.75, snap.SMA20, 1e-9)
	assert.Equal(t, 100.0, snap.RSI14)
	assert.Equal(t, "Overbought", snap.RSILabel)
}

func TestComputeTechnicals_ShortHistoryLeavesAveragesUndefined(t *testing.T) {
	snap := ComputeTechnicals(barsFromCloses(linear(30, 80, -0.25)), config.Default().RSIThresholds)

	assert.NotZero(t, snap.SMA20)
	assert.True(t, snap.BelowSMA20)
	assert.Zero(t, snap.SMA50)
	assert.Zero(t, snap.SMA100)
	assert.False(t, snap.AboveSMA50)
	assert.False(t, snap.BelowSMA50)
	assert.False(t, snap.AboveSMA100)
	assert.False(t, snap.BelowSMA100)
	assert.Equal(t, 0.0, snap.RSI14)
	assert.Equal(t, "Oversold", snap.RSILabel)
}

func TestComputeTechnicals_FlatSeriesFallsBackToNeutral(t *testing.T) {
	snap := ComputeTechnicals(barsFromCloses(linear(40, 25, 0)), config.Default().RSIThresholds)

	assert.Equal(t, 50.0, snap.RSI14)
	assert.Equal(t, "Neutral", snap.RSILabel)
	assert.False(t, snap.AboveSMA20, "price equal to its average is neither above nor below")
	assert.False(t, snap.BelowSMA20)
}

package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PremiumSentinel/internal/config"
	"PremiumSentinel/internal/model"
)

func TestEvaluateVIX(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		level  float64
		color  model.Color
		reason string
	}{
		{12, model.Yellow, "Low volatility – thin premiums"},
		{18, model.Green, "Favorable for premium selling"},
		{22.5, model.Green, "Favorable for premium selling"},
		{28, model.Green, "Favorable for premium selling"},
		{30, model.Yellow, "Elevated risk – proceed with caution"},
		{35, model.Red, "Extreme stress – consider reducing size or pausing"},
		{60, model.Red, "Extreme stress – consider reducing size or pausing"},
	}
	for _, tt := range tests {
		got := EvaluateVIX(tt.level, cfg)
		assert.Equal(t, tt.color, got.Color, "vix %.1f", tt.level)
		assert.Equal(t, tt.reason, got.Reason, "vix %.1f", tt.level)
	}
}

func snapshot(above20, above50, above100 bool, sma20, sma50, rsi float64) model.TechnicalSnapshot {
	return model.TechnicalSnapshot{
		Price: 100, SMA20: sma20, SMA50: sma50, SMA100: 95, RSI14: rsi,
		AboveSMA20: above20, AboveSMA50: above50, AboveSMA100: above100,
		BelowSMA20: !above20, BelowSMA50: !above50, BelowSMA100: !above100,
	}
}

func TestEvaluateIndex_ShortCalls(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		name  string
		snap  model.TechnicalSnapshot
		color model.Color
	}{
		{"below both averages and overbought", snapshot(false, false, true, 101, 102, 65), model.Green},
		{"sma20 crossed under sma50 and overbought", snapshot(true, true, true, 98, 99, 60), model.Green},
		{"weakening but rsi neutral", snapshot(false, false, false, 101, 102, 50), model.Yellow},
		{"strong uptrend still building", snapshot(true, true, true, 99, 97, 55), model.Red},
		{"strong uptrend already overbought", snapshot(true, true, true, 99, 97, 72), model.Yellow},
		{"undefined averages do not count as crossed", snapshot(true, false, false, 0, 0, 65), model.Yellow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateIndex(tt.snap, model.ShortCalls, cfg)
			assert.Equal(t, tt.color, got.Color)
			assert.NotEmpty(t, got.Reason)
		})
	}

	got := EvaluateIndex(snapshot(true, true, true, 99, 97, 55), model.ShortCalls, cfg)
	assert.Equal(t, "Avoid Short Calls – strong uptrend still building", got.Reason)
}

func TestEvaluateIndex_CashSecuredPuts(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		name   string
		snap   model.TechnicalSnapshot
		color  model.Color
		reason string
	}{
		{"pullback in uptrend", snapshot(true, true, true, 99, 97, 40), model.Green, "Favorable for CSP – uptrend with pullback"},
		{"falling knife", snapshot(false, false, false, 101, 102, 35), model.Red, "Avoid CSP – falling knife risk"},
		{"downtrend at neutral low", snapshot(false, false, false, 101, 102, 40), model.Yellow, "Mixed signals for CSP – proceed with caution"},
		{"uptrend without pullback", snapshot(true, true, true, 99, 97, 55), model.Yellow, "Mixed signals for CSP – proceed with caution"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateIndex(tt.snap, model.CashSecuredPuts, cfg)
			assert.Equal(t, tt.color, got.Color)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestEvaluateIndex_DefaultSnapshotIsNeverGreenForPuts(t *testing.T) {
	cfg := config.Default()
	snap := model.TechnicalSnapshot{RSI14: 50, RSILabel: "N/A"}
	assert.Equal(t, model.Yellow, EvaluateIndex(snap, model.CashSecuredPuts, cfg).Color)
	assert.Equal(t, model.Yellow, EvaluateIndex(snap, model.ShortCalls, cfg).Color)
}

// healthy passes every rule of the cascade.
func healthy() model.EnrichedContract {
	return model.EnrichedContract{
		OptionContract: model.OptionContract{
			ContractID: "SQQQ261023C00025000", Type: model.Call, Strike: 25,
			Volume: 100, OpenInterest: 500, Greeks: &model.Greeks{Delta: 0.25},
		},
		Mid: 1.2, AnnReturn: 260.71,
		ReturnOK: true, DeltaOK: true, DeltaInFocus: true, LiquidityOK: true,
	}
}

func TestEvaluateOption_Green(t *testing.T) {
	got := EvaluateOption(healthy(), model.Green, model.Yellow, config.Default())
	assert.Equal(t, model.Green, got.Color)
	assert.Equal(t, "✓ 260.7% annualized, delta in band, liquidity OK, VIX & index regime supportive", got.Reason)
}

func TestEvaluateOption_CascadeOrder(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		name   string
		mutate func(*model.EnrichedContract)
		vix    model.Color
		index  model.Color
		color  model.Color
		reason string
	}{
		{
			name:   "return below target beats everything",
			mutate: func(r *model.EnrichedContract) { r.ReturnOK, r.AnnReturn, r.DeltaOK, r.Volume = false, 12.34, false, 0 },
			vix:    model.Red, index: model.Red,
			color: model.Red, reason: "Annualized return 12.3% below target",
		},
		{
			name:   "delta outside band",
			mutate: func(r *model.EnrichedContract) { r.DeltaOK, r.Greeks = false, &model.Greeks{Delta: 0.55}; r.Volume = 0 },
			vix:    model.Green, index: model.Green,
			color: model.Red, reason: "Delta 0.55 outside allowed band",
		},
		{
			name:   "missing delta",
			mutate: func(r *model.EnrichedContract) { r.DeltaOK, r.Greeks = false, nil },
			vix:    model.Green, index: model.Green,
			color: model.Red, reason: "Delta N/A outside allowed band",
		},
		{
			name:   "open interest under the marginal floor",
			mutate: func(r *model.EnrichedContract) { r.OpenInterest, r.Volume, r.LiquidityOK = 49, 30, false },
			vix:    model.Red, index: model.Red,
			color: model.Red, reason: "Very low liquidity (OI=49, Vol=30)",
		},
		{
			name:   "zero volume",
			mutate: func(r *model.EnrichedContract) { r.Volume, r.LiquidityOK = 0, false },
			vix:    model.Green, index: model.Green,
			color: model.Red, reason: "Very low liquidity (OI=500, Vol=0)",
		},
		{
			name:   "vix and index both red",
			mutate: func(r *model.EnrichedContract) {},
			vix:    model.Red, index: model.Red,
			color: model.Red, reason: "High-risk environment – VIX and index both red",
		},
		{
			name:   "marginal liquidity",
			mutate: func(r *model.EnrichedContract) { r.OpenInterest, r.LiquidityOK, r.LiquidityMarginal = 120, false, true },
			vix:    model.Green, index: model.Green,
			color: model.Yellow, reason: "Marginal liquidity (OI=120, Vol=100)",
		},
		{
			name:   "vix red alone",
			mutate: func(r *model.EnrichedContract) {},
			vix:    model.Red, index: model.Green,
			color: model.Yellow, reason: "VIX in red zone",
		},
		{
			name:   "index red alone with vix yellow",
			mutate: func(r *model.EnrichedContract) {},
			vix:    model.Yellow, index: model.Red,
			color: model.Yellow, reason: "VIX in yellow zone; Index technical is red",
		},
		{
			name:   "index unknown",
			mutate: func(r *model.EnrichedContract) {},
			vix:    model.Green, index: model.Unknown,
			color: model.Yellow, reason: "Near threshold",
		},
		{
			name:   "vix unknown",
			mutate: func(r *model.EnrichedContract) {},
			vix:    model.Unknown, index: model.Yellow,
			color: model.Yellow, reason: "VIX unavailable; Index technical is yellow",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := healthy()
			tt.mutate(&row)
			got := EvaluateOption(row, tt.vix, tt.index, cfg)
			assert.Equal(t, tt.color, got.Color)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestEvaluateSelected(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		name  string
		ann   float64
		oi    int64
		vol   int64
		color model.Color
	}{
		{"meets target", 45, 300, 40, model.Green},
		{"under absolute floor", 19.9, 300, 40, model.Red},
		{"poor open interest", 45, 40, 40, model.Red},
		{"no volume", 45, 300, 0, model.Red},
		{"between floor and target", 25, 300, 40, model.Yellow},
		{"target met but thin", 45, 150, 40, model.Yellow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.color, EvaluateSelected(tt.ann, tt.oi, tt.vol, cfg).Color)
		})
	}
}

func TestSummarizeETFs(t *testing.T) {
	cfg := config.Default()
	cfg.ETFs = []string{"SPXS", "SQQQ", "SH"}

	put := healthy()
	put.Type = model.Put
	yellow := healthy()
	yellow.LiquidityOK = false
	bad := healthy()
	bad.ReturnOK = false

	chains := map[string]map[string][]model.EnrichedContract{
		"SPXS": {
			"2026-10-23": {healthy(), put, bad},
			"2026-10-30": {healthy()},
		},
		"SQQQ": {
			"2026-10-23": {yellow, bad},
			"2026-10-30": nil,
		},
	}
	prices := map[string]float64{"SPXS": 7.456, "SQQQ": 24.1}

	// S&P regime supportive, Nasdaq red with VIX red: SQQQ rows cannot be green.
	got := SummarizeETFs(chains, prices, model.Yellow, model.Green, model.Red, cfg)
	require.Len(t, got, 3)

	assert.Equal(t, model.ETFStatus{
		Symbol: "SPXS", LastPrice: 7.46, GreenCalls: 2, GreenPuts: 1, TotalGreen: 3, StatusColor: model.Green,
	}, got[0])
	assert.Equal(t, model.ETFStatus{
		Symbol: "SQQQ", LastPrice: 24.1, YellowCount: 1, StatusColor: model.Yellow,
	}, got[1])
	assert.Equal(t, model.ETFStatus{Symbol: "SH", StatusColor: model.Red}, got[2])
}

func TestSummarizeETFs_UsesNasdaqColorForNasdaqETFs(t *testing.T) {
	cfg := config.Default()
	cfg.ETFs = []string{"SQQQ", "SDS"}
	chains := map[string]map[string][]model.EnrichedContract{
		"SQQQ": {"2026-10-23": {healthy()}},
		"SDS":  {"2026-10-23": {healthy()}},
	}

	got := SummarizeETFs(chains, nil, model.Red, model.Green, model.Red, cfg)
	assert.Equal(t, model.Red, got[0].StatusColor)
	assert.Equal(t, model.Yellow, got[1].StatusColor)
}

func TestIndexColorFor(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, model.Red, IndexColorFor("SQQQ", model.Green, model.Red, cfg))
	assert.Equal(t, model.Green, IndexColorFor("SPXS", model.Green, model.Red, cfg))
}

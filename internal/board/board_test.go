package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PremiumSentinel/internal/analytics"
	"PremiumSentinel/internal/config"
	"PremiumSentinel/internal/model"
)

var exp = time.Date(2026, 10, 23, 0, 0, 0, 0, time.UTC)

func contract(id string, typ model.OptionType, strike, bid, ask, delta float64, oi, vol int64) model.OptionContract {
	return model.OptionContract{
		ContractID:        id,
		Type:              typ,
		Expiration:        exp,
		DTE:               8,
		Strike:            strike,
		Bid:               bid,
		Ask:               ask,
		Volume:            vol,
		OpenInterest:      oi,
		ImpliedVolatility: 0.9,
		Greeks:            &model.Greeks{Delta: delta},
	}
}

func vixHistory(n int) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Close: 15 + float64(i%21)}
	}
	return bars
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.ETFs = []string{"SQQQ", "SPXS"}
	return cfg
}

func snapshot() *model.MarketData {
	return &model.MarketData{
		Quotes: map[string]model.Quote{
			"^VIX": {Last: 22, Change: -0.5, ChangePct: -2.22},
			"SQQQ": {Last: 24},
			"SPXS": {Last: 7.456},
		},
		Historical: map[string][]model.OHLCV{"^VIX": vixHistory(260)},
		Expirations: map[string]map[int]time.Time{
			"SQQQ": {7: exp},
		},
		Chains: map[string]map[string][]model.OptionContract{
			"SQQQ": {"2026-10-23": {
				contract("A", model.Call, 26, 0.5, 0.7, 0.30, 500, 50),
				contract("B", model.Call, 28, 0.05, 0.07, 0.15, 800, 90),
				contract("C", model.Call, 25, 0.3, 0.5, 0.45, 100, 10),
				contract("D", model.Put, 22, 0.4, 0.6, -0.25, 300, 30),
			}},
		},
		LastRefresh: time.Date(2026, 10, 15, 15, 0, 0, 0, time.UTC),
	}
}

func TestBuild_Panels(t *testing.T) {
	b := Build(snapshot(), testConfig(), model.ShortCalls)

	assert.Equal(t, 22.0, b.VIX.Level)
	assert.Equal(t, 35.0, b.VIX.High52w)
	assert.Equal(t, 15.0, b.VIX.Low52w)
	assert.Equal(t, 35.0, b.VIX.IVRank)
	assert.Equal(t, model.Green, b.VIX.Light.Color)

	// no index history: default snapshot, mixed signals
	assert.Equal(t, "SPY", b.SP500.Symbol)
	assert.Equal(t, 50.0, b.SP500.Technicals.RSI14)
	assert.Equal(t, model.Yellow, b.SP500.Light.Color)
	assert.Equal(t, model.Yellow, b.Nasdaq.Light.Color)

	require.Len(t, b.ETFs, 2)
	sqqq, spxs := b.ETFs[0], b.ETFs[1]
	assert.Equal(t, "SQQQ", sqqq.Symbol)
	assert.Equal(t, 1, sqqq.GreenCalls)
	assert.Equal(t, 1, sqqq.GreenPuts)
	assert.Equal(t, 1, sqqq.YellowCount)
	assert.Equal(t, model.Green, sqqq.StatusColor)
	assert.Equal(t, 7.46, spxs.LastPrice)
	assert.Equal(t, model.Red, spxs.StatusColor)
	assert.Equal(t, 2, b.TotalGreen())

	assert.Equal(t, map[string]model.Color{
		SubjectVIX:    model.Green,
		SubjectSP500:  model.Yellow,
		SubjectNasdaq: model.Yellow,
		"SQQQ":        model.Green,
		"SPXS":        model.Red,
	}, b.Colors())

	light, ok := b.Light("SQQQ")
	require.True(t, ok)
	assert.Equal(t, "2 green (1 calls, 1 puts), 1 yellow", light.Reason)
	_, ok = b.Light("TQQQ")
	assert.False(t, ok)
}

func TestBuild_NilSnapshot(t *testing.T) {
	b := Build(nil, config.Default(), model.CashSecuredPuts)
	assert.True(t, b.Stale)
	assert.Equal(t, model.Unknown, b.VIX.Light.Color)
	assert.Len(t, b.ETFs, 4)
	for _, st := range b.ETFs {
		assert.Equal(t, model.Red, st.StatusColor)
	}
	assert.Empty(t, b.Chain("SPXS", 7, analytics.Filter{}))
}

func TestBuild_VIXFallsBackToLastClose(t *testing.T) {
	md := snapshot()
	delete(md.Quotes, "^VIX")
	md.Historical["^VIX"] = append(md.Historical["^VIX"], model.OHLCV{Close: 40})

	b := Build(md, testConfig(), model.ShortCalls)
	assert.Equal(t, 40.0, b.VIX.Level)
	assert.Equal(t, 100.0, b.VIX.IVRank)
	assert.Equal(t, model.Red, b.VIX.Light.Color)
}

func TestBuild_MissingVIXNeverGreensContracts(t *testing.T) {
	md := snapshot()
	delete(md.Quotes, "^VIX")
	delete(md.Historical, "^VIX")

	b := Build(md, testConfig(), model.ShortCalls)
	assert.Equal(t, model.Unknown, b.VIX.Light.Color)
	assert.Equal(t, 0, b.TotalGreen())
	assert.Equal(t, model.Yellow, b.ETFs[0].StatusColor)
	assert.Equal(t, 3, b.ETFs[0].YellowCount)

	rows := b.Chain("SQQQ", 7, analytics.Filter{})
	require.NotEmpty(t, rows)
	assert.Equal(t, "A", rows[0].ContractID)
	assert.Equal(t, model.Yellow, rows[0].Light.Color)
	assert.Equal(t, "VIX unavailable; Index technical is yellow", rows[0].Light.Reason)
}

func TestChain_FiltersSortsAndLights(t *testing.T) {
	b := Build(snapshot(), testConfig(), model.ShortCalls)

	rows := b.Chain("SQQQ", 7, analytics.Filter{})
	require.Len(t, rows, 3)
	ids := []string{rows[0].ContractID, rows[1].ContractID, rows[2].ContractID}
	assert.Equal(t, []string{"A", "C", "B"}, ids)
	assert.Equal(t, 114.06, rows[0].AnnReturn)
	assert.Equal(t, model.Green, rows[0].Light.Color)
	assert.Equal(t, model.Yellow, rows[1].Light.Color)
	assert.Equal(t, "Marginal liquidity (OI=100, Vol=10); Index technical is yellow", rows[1].Light.Reason)
	assert.Equal(t, model.Red, rows[2].Light.Color)

	minReturn := 50.0
	rows = b.Chain("SQQQ", 7, analytics.Filter{MinReturn: &minReturn})
	assert.Len(t, rows, 2)

	rows = b.Chain("SQQQ", 7, analytics.Filter{Strategy: model.CashSecuredPuts})
	require.Len(t, rows, 1)
	assert.Equal(t, "D", rows[0].ContractID)
	assert.Equal(t, model.Green, rows[0].Light.Color)

	assert.Empty(t, b.Chain("SQQQ", 14, analytics.Filter{}), "no expiration for that target")
	assert.Empty(t, b.Chain("SPXS", 7, analytics.Filter{}))
}

func TestSelect(t *testing.T) {
	b := Build(snapshot(), testConfig(), model.ShortCalls)

	sel, err := b.Select("SQQQ", 7, "A")
	require.NoError(t, err)
	assert.Equal(t, 24.0, sel.Underlying)
	assert.Equal(t, model.TrafficLight{Color: model.Green, Reason: "Meets all targets"}, sel.Light)
	require.NotNil(t, sel.Payoff)
	assert.Equal(t, 26.6, sel.Payoff.Breakeven)
	require.Len(t, sel.Payoff.Points, analytics.DefaultPayoffPoints)
	assert.Equal(t, model.PayoffPoint{Price: 16.8, PnL: 0.6}, sel.Payoff.Points[0])
	assert.Equal(t, model.PayoffPoint{Price: 31.2, PnL: -4.6}, sel.Payoff.Points[analytics.DefaultPayoffPoints-1])

	sel, err = b.Select("SQQQ", 7, "C")
	require.NoError(t, err)
	assert.Equal(t, model.TrafficLight{Color: model.Yellow, Reason: "Near threshold – review carefully"}, sel.Light)

	_, err = b.Select("SQQQ", 7, "Z")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = b.Select("SQQQ", 14, "A")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSelect_NoPremiumHasNoPayoff(t *testing.T) {
	md := snapshot()
	md.Chains["SQQQ"]["2026-10-23"] = append(md.Chains["SQQQ"]["2026-10-23"],
		contract("E", model.Call, 30, 0, 0, 0.05, 0, 0))

	sel, err := Build(md, testConfig(), model.ShortCalls).Select("SQQQ", 7, "E")
	require.NoError(t, err)
	assert.Nil(t, sel.Payoff)
	assert.Equal(t, model.Red, sel.Light.Color)
}

package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"PremiumSentinel/internal/model"
)

var defaultMockPrices = map[string]float64{
	"SPY":  580,
	"QQQ":  500,
	"^VIX": 22,
	"SPXS": 7.5,
	"SQQQ": 24,
	"SH":   40,
	"SDS":  18,
}

// MockProvider returns deterministic synthetic data for development and
// tests. Chains carry no Greeks, like Yahoo.
type MockProvider struct {
	Prices map[string]float64 // overrides defaultMockPrices
	IV     float64            // implied volatility for every contract, default 0.9
	Now    func() time.Time
}

// NewMockProvider creates a mock anchored at the current time.
func NewMockProvider() *MockProvider {
	return &MockProvider{Now: time.Now}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) price(symbol string) float64 {
	if p, ok := m.Prices[symbol]; ok {
		return p
	}
	if p, ok := defaultMockPrices[symbol]; ok {
		return p
	}
	return 50
}

func (m *MockProvider) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *MockProvider) GetQuotes(_ context.Context, symbols []string) (map[string]model.Quote, error) {
	out := make(map[string]model.Quote, len(symbols))
	for _, s := range symbols {
		p := m.price(s)
		prev := round(p*0.99, 4)
		out[s] = model.Quote{
			Last:      p,
			Bid:       round(p*0.999, 4),
			Ask:       round(p*1.001, 4),
			Volume:    1_000_000,
			PrevClose: prev,
			Change:    round(p-prev, 4),
			ChangePct: round((p-prev)/prev*100, 2),
		}
	}
	return out, nil
}

// GetOptionExpirations lists the next eight Fridays.
func (m *MockProvider) GetOptionExpirations(context.Context, string) ([]time.Time, error) {
	d := civilDate(m.now())
	for d.Weekday() != time.Friday {
		d = d.AddDate(0, 0, 1)
	}
	out := make([]time.Time, 8)
	for i := range out {
		out[i] = d.AddDate(0, 0, 7*i)
	}
	return out, nil
}

// GetOptionChain builds strikes from 80% to 120% of spot in 2.5% steps.
func (m *MockProvider) GetOptionChain(_ context.Context, symbol string, expiration time.Time) ([]model.OptionContract, error) {
	spot := m.price(symbol)
	iv := m.IV
	if iv <= 0 {
		iv = 0.9
	}
	exp := civilDate(expiration)
	dte := daysBetween(m.now(), exp)
	years := math.Max(float64(dte), 1) / 365

	var out []model.OptionContract
	for _, typ := range []model.OptionType{model.Call, model.Put} {
		letter := "C"
		if typ == model.Put {
			letter = "P"
		}
		for step := -8; step <= 8; step++ {
			strike := round(spot*(1+0.025*float64(step)), 2)
			moneyness := (strike - spot) / spot
			timeValue := spot * iv * math.Sqrt(years) * 0.4 * math.Exp(-moneyness*moneyness/(2*iv*iv*years))
			intrinsic := math.Max(0, spot-strike)
			if typ == model.Put {
				intrinsic = math.Max(0, strike-spot)
			}
			oi := int64(1500 * math.Exp(-math.Abs(moneyness)*10))
			out = append(out, model.OptionContract{
				ContractID:        fmt.Sprintf("%s%s%s%08d", symbol, exp.Format("060102"), letter, int64(math.Round(strike*1000))),
				Type:              typ,
				Expiration:        exp,
				DTE:               dte,
				Strike:            strike,
				Bid:               round(intrinsic+timeValue*0.95, 2),
				Ask:               round(intrinsic+timeValue*1.05, 2),
				Last:              round(intrinsic+timeValue, 2),
				Volume:            oi / 8,
				OpenInterest:      oi,
				ImpliedVolatility: iv,
			})
		}
	}
	return out, nil
}

// GetHistorical returns days of weekday bars ending today that oscillate
// around the symbol's price.
func (m *MockProvider) GetHistorical(_ context.Context, symbol string, days int) ([]model.OHLCV, error) {
	base := m.price(symbol)
	bars := make([]model.OHLCV, 0, days)
	d := civilDate(m.now())
	for len(bars) < days {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			bars = append(bars, model.OHLCV{Time: d})
		}
		d = d.AddDate(0, 0, -1)
	}
	for i := range bars {
		// bars are newest first here; k counts back from today
		k := float64(i)
		p := base * (1 + 0.03*math.Sin(k/6) - 0.0005*k)
		bars[i].Open = round(p*0.998, 4)
		bars[i].High = round(p*1.006, 4)
		bars[i].Low = round(p*0.994, 4)
		bars[i].Close = round(p, 4)
		bars[i].Volume = 1_000_000
	}
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

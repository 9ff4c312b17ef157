// Package board runs the indicator, analytics and regime engines over one
// market snapshot and exposes the result as a read-only view.
package board

import (
	"errors"
	"fmt"
	"time"

	"PremiumSentinel/internal/analytics"
	"PremiumSentinel/internal/calculator"
	"PremiumSentinel/internal/config"
	"PremiumSentinel/internal/model"
	"PremiumSentinel/internal/strategy"
)

// ErrNotFound is returned when a requested contract is not on the board.
var ErrNotFound = errors.New("not found")

// Subjects whose colors are tracked between passes, besides each ETF.
const (
	SubjectVIX    = "VIX"
	SubjectSP500  = "SP500"
	SubjectNasdaq = "NASDAQ"
)

// VIXPanel is the volatility regime view.
type VIXPanel struct {
	Symbol    string             `json:"symbol"`
	Level     float64            `json:"level"`
	Change    float64            `json:"change"`
	ChangePct float64            `json:"change_pct"`
	High52w   float64            `json:"high_52w"`
	Low52w    float64            `json:"low_52w"`
	IVRank    float64            `json:"iv_rank"`
	Light     model.TrafficLight `json:"light"`
}

// IndexPanel is the technical view of one index proxy.
type IndexPanel struct {
	Symbol     string                  `json:"symbol"`
	Technicals model.TechnicalSnapshot `json:"technicals"`
	Light      model.TrafficLight      `json:"light"`
}

// Board is everything derived from one MarketData snapshot for one strategy.
type Board struct {
	Strategy    model.Strategy               `json:"strategy"`
	VIX         VIXPanel                     `json:"vix"`
	SP500       IndexPanel                   `json:"sp500"`
	Nasdaq      IndexPanel                   `json:"nasdaq"`
	ETFs        []model.ETFStatus            `json:"etfs"`
	Expirations map[string]map[int]time.Time `json:"expirations"`
	Stale       bool                         `json:"stale_warning"`
	LastError   string                       `json:"last_error,omitempty"`
	LastRefresh time.Time                    `json:"last_refresh"`

	prices map[string]float64
	chains map[string]map[string][]model.EnrichedContract
	cfg    *config.Config
}

// ChainRow is an enriched contract with its traffic light.
type ChainRow struct {
	model.EnrichedContract
	Light model.TrafficLight `json:"light"`
}

// Selection is the detail view of one contract picked from a chain.
type Selection struct {
	Symbol     string             `json:"symbol"`
	Strategy   model.Strategy     `json:"strategy"`
	Underlying float64            `json:"underlying"`
	Contract   ChainRow           `json:"contract"`
	Light      model.TrafficLight `json:"performance"`
	Payoff     *model.Payoff      `json:"payoff,omitempty"` // nil without a positive premium and strike
}

// Build evaluates md under cfg for strategy s. A nil md yields an empty,
// stale board.
func Build(md *model.MarketData, cfg *config.Config, s model.Strategy) *Board {
	if md == nil {
		md = &model.MarketData{Stale: true}
	}
	b := &Board{
		Strategy:    s,
		Expirations: md.Expirations,
		Stale:       md.Stale,
		LastError:   md.LastError,
		LastRefresh: md.LastRefresh,
		prices:      make(map[string]float64, len(cfg.ETFs)),
		chains:      make(map[string]map[string][]model.EnrichedContract, len(md.Chains)),
		cfg:         cfg,
	}
	if b.Expirations == nil {
		b.Expirations = map[string]map[int]time.Time{}
	}

	b.VIX = buildVIX(md, cfg)
	b.SP500 = buildIndex(md, cfg.IndexProxies.SP500, s, cfg)
	b.Nasdaq = buildIndex(md, cfg.IndexProxies.Nasdaq, s, cfg)

	for _, etf := range cfg.ETFs {
		b.prices[etf] = md.Last(etf)
	}
	for etf, byExp := range md.Chains {
		enriched := make(map[string][]model.EnrichedContract, len(byExp))
		for key, rows := range byExp {
			if len(rows) == 0 {
				continue
			}
			enriched[key] = analytics.Enrich(rows, md.Last(etf), cfg)
		}
		b.chains[etf] = enriched
	}

	b.ETFs = strategy.SummarizeETFs(b.chains, b.prices, b.VIX.Light.Color, b.SP500.Light.Color, b.Nasdaq.Light.Color, cfg)
	return b
}

func buildVIX(md *model.MarketData, cfg *config.Config) VIXPanel {
	q := md.Quotes[cfg.VIXSymbol]
	closes := model.Closes(md.Historical[cfg.VIXSymbol])
	p := VIXPanel{Symbol: cfg.VIXSymbol, Level: q.Last, Change: q.Change, ChangePct: q.ChangePct}
	if p.Level <= 0 && len(closes) > 0 {
		p.Level = closes[len(closes)-1]
	}
	if p.Level <= 0 {
		p.Light = model.TrafficLight{Color: model.Unknown, Reason: "VIX unavailable"}
		return p
	}

	if high, low, err := calculator.CalculateRange(closes, calculator.TradingDaysPerYear); err == nil {
		p.High52w, p.Low52w = high, low
		p.IVRank = analytics.IVRank(p.Level, high, low)
	}
	p.Light = strategy.EvaluateVIX(p.Level, cfg)
	return p
}

func buildIndex(md *model.MarketData, symbol string, s model.Strategy, cfg *config.Config) IndexPanel {
	snap := calculator.ComputeTechnicals(md.Historical[symbol], cfg.RSIThresholds)
	return IndexPanel{
		Symbol:     symbol,
		Technicals: snap,
		Light:      strategy.EvaluateIndex(snap, s, cfg),
	}
}

// Price is the last price of a tracked ETF.
func (b *Board) Price(symbol string) float64 { return b.prices[symbol] }

// Tracks reports whether symbol is one of the configured ETFs.
func (b *Board) Tracks(symbol string) bool {
	_, ok := b.prices[symbol]
	return ok
}

// Colors maps every tracked subject to its current color.
func (b *Board) Colors() map[string]model.Color {
	out := map[string]model.Color{
		SubjectVIX:    b.VIX.Light.Color,
		SubjectSP500:  b.SP500.Light.Color,
		SubjectNasdaq: b.Nasdaq.Light.Color,
	}
	for _, st := range b.ETFs {
		out[st.Symbol] = st.StatusColor
	}
	return out
}

// Light returns the current light of a subject, as named by Colors.
func (b *Board) Light(subject string) (model.TrafficLight, bool) {
	switch subject {
	case SubjectVIX:
		return b.VIX.Light, true
	case SubjectSP500:
		return b.SP500.Light, true
	case SubjectNasdaq:
		return b.Nasdaq.Light, true
	}
	for _, st := range b.ETFs {
		if st.Symbol == subject {
			return model.TrafficLight{
				Color:  st.StatusColor,
				Reason: fmt.Sprintf("%d green (%d calls, %d puts), %d yellow", st.TotalGreen, st.GreenCalls, st.GreenPuts, st.YellowCount),
			}, true
		}
	}
	return model.TrafficLight{}, false
}

// TotalGreen sums green contracts across all ETFs.
func (b *Board) TotalGreen() int {
	n := 0
	for _, st := range b.ETFs {
		n += st.TotalGreen
	}
	return n
}

func (b *Board) rows(symbol string, dte int) []model.EnrichedContract {
	exp, ok := b.Expirations[symbol][dte]
	if !ok {
		return nil
	}
	return b.chains[symbol][model.ExpirationKey(exp)]
}

// Chain returns the contracts of symbol at the expiration chosen for the
// target dte, filtered and sorted by annualized return, each with its light.
// An empty filter strategy uses the board's strategy.
func (b *Board) Chain(symbol string, dte int, f analytics.Filter) []ChainRow {
	if f.Strategy == "" {
		f.Strategy = b.Strategy
	}
	rows := analytics.FilterChain(b.rows(symbol, dte), f)
	index := strategy.IndexColorFor(symbol, b.SP500.Light.Color, b.Nasdaq.Light.Color, b.cfg)

	out := make([]ChainRow, len(rows))
	for i, r := range rows {
		out[i] = ChainRow{EnrichedContract: r, Light: strategy.EvaluateOption(r, b.VIX.Light.Color, index, b.cfg)}
	}
	return out
}

// Select looks up contractID in the chain of symbol for the target dte and
// rates it. The payoff uses the mid price as premium.
func (b *Board) Select(symbol string, dte int, contractID string) (*Selection, error) {
	var found *model.EnrichedContract
	rows := b.rows(symbol, dte)
	for i := range rows {
		if rows[i].ContractID == contractID {
			found = &rows[i]
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("contract %s for %s at %d DTE: %w", contractID, symbol, dte, ErrNotFound)
	}

	index := strategy.IndexColorFor(symbol, b.SP500.Light.Color, b.Nasdaq.Light.Color, b.cfg)
	sel := &Selection{
		Symbol:     symbol,
		Strategy:   b.Strategy,
		Underlying: b.prices[symbol],
		Contract: ChainRow{
			EnrichedContract: *found,
			Light:            strategy.EvaluateOption(*found, b.VIX.Light.Color, index, b.cfg),
		},
		Light: strategy.EvaluateSelected(found.AnnReturn, found.OpenInterest, found.Volume, b.cfg),
	}

	if found.Mid > 0 && found.Strike > 0 {
		underlying := sel.Underlying
		if underlying <= 0 {
			underlying = found.Strike
		}
		payoff := analytics.PayoffTable(found.Type, found.Strike, found.Mid, underlying, analytics.DefaultPayoffPoints)
		sel.Payoff = &payoff
	}
	return sel, nil
}

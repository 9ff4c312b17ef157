package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"PremiumSentinel/internal/model"
)

// RESTProvider implements Provider against a vendor REST API that speaks
// plain JSON with bearer authentication. Chains may carry Greeks.
type RESTProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Now     func() time.Time
}

// NewRESTProvider creates a new provider with optional proxy support.
func NewRESTProvider(baseURL, apiKey, proxyURL string) *RESTProvider {
	return &RESTProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
		Now:     time.Now,
	}
}

func (f *RESTProvider) Name() string { return "rest" }

type restQuote struct {
	Symbol    string  `json:"symbol"`
	Last      float64 `json:"last"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Volume    int64   `json:"volume"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
	PrevClose float64 `json:"prev_close"`
}

type restOption struct {
	ContractID        string   `json:"contract_id"`
	Type              string   `json:"type"`
	Strike            float64  `json:"strike"`
	Bid               float64  `json:"bid"`
	Ask               float64  `json:"ask"`
	Last              float64  `json:"last"`
	Volume            int64    `json:"volume"`
	OpenInterest      int64    `json:"open_interest"`
	ImpliedVolatility float64  `json:"implied_volatility"`
	Delta             *float64 `json:"delta"`
	Gamma             *float64 `json:"gamma"`
	Theta             *float64 `json:"theta"`
	Vega              *float64 `json:"vega"`
}

// restBar is the expected JSON shape of a daily bar.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (f *RESTProvider) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	endpoint := f.BaseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("fetch %s: status %d, body: %s", path, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (f *RESTProvider) GetQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	var rows []restQuote
	if err := f.getJSON(ctx, "/api/v1/quotes", url.Values{"symbols": {strings.Join(symbols, ",")}}, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]model.Quote, len(rows))
	for _, r := range rows {
		out[r.Symbol] = model.Quote{
			Last: r.Last, Bid: r.Bid, Ask: r.Ask, Volume: r.Volume,
			Change: r.Change, ChangePct: r.ChangePct, PrevClose: r.PrevClose,
		}
	}
	return out, nil
}

func (f *RESTProvider) GetOptionExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	var dates []string
	if err := f.getJSON(ctx, "/api/v1/options/expirations", url.Values{"symbol": {symbol}}, &dates); err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return nil, fmt.Errorf("parse expiration %q: %w", d, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *RESTProvider) GetOptionChain(ctx context.Context, symbol string, expiration time.Time) ([]model.OptionContract, error) {
	var rows []restOption
	q := url.Values{"symbol": {symbol}, "expiration": {model.ExpirationKey(expiration)}}
	if err := f.getJSON(ctx, "/api/v1/options/chain", q, &rows); err != nil {
		return nil, err
	}
	exp := civilDate(expiration)
	dte := daysBetween(f.Now(), exp)
	out := make([]model.OptionContract, 0, len(rows))
	for _, r := range rows {
		c := model.OptionContract{
			ContractID:        r.ContractID,
			Type:              model.OptionType(strings.ToLower(r.Type)),
			Expiration:        exp,
			DTE:               dte,
			Strike:            r.Strike,
			Bid:               r.Bid,
			Ask:               r.Ask,
			Last:              r.Last,
			Volume:            r.Volume,
			OpenInterest:      r.OpenInterest,
			ImpliedVolatility: r.ImpliedVolatility,
		}
		if r.Delta != nil {
			c.Greeks = &model.Greeks{Delta: *r.Delta, Gamma: deref(r.Gamma), Theta: deref(r.Theta), Vega: deref(r.Vega)}
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *RESTProvider) GetHistorical(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	var raw []restBar
	q := url.Values{"symbol": {symbol}, "limit": {fmt.Sprint(days)}}
	if err := f.getJSON(ctx, "/api/v1/bars/daily", q, &raw); err != nil {
		return nil, err
	}
	bars := make([]model.OHLCV, len(raw))
	for i, b := range raw {
		bars[i] = model.OHLCV{
			Time:   civilDate(time.Unix(b.Timestamp, 0).UTC()),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"

	"PremiumSentinel/internal/model"
)

// DefaultYahooBaseURL is the public Yahoo Finance API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooProvider implements Provider using the Yahoo Finance public API.
// Quotes are delayed and chains carry IV but no Greeks.
type YahooProvider struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	Now       func() time.Time
}

// NewYahooProvider creates a new Yahoo Finance provider.
func NewYahooProvider(proxyURL string) *YahooProvider {
	return &YahooProvider{
		BaseURL: DefaultYahooBaseURL,
		Client:  newHTTPClient(proxyURL),
		SymbolMap: map[string]string{
			"SPX":   "^GSPC",
			"SP500": "^GSPC",
			"VIX":   "^VIX",
		},
		Now: time.Now,
	}
}

func (f *YahooProvider) Name() string { return "yahoo" }

func (f *YahooProvider) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from the chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice  float64 `json:"regularMarketPrice"`
				ChartPreviousClose  float64 `json:"chartPreviousClose"`
				PreviousClose       float64 `json:"previousClose"`
				RegularMarketVolume int64   `json:"regularMarketVolume"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// yahooOptions is the response structure from the options API.
type yahooOptions struct {
	OptionChain struct {
		Result []struct {
			ExpirationDates []int64 `json:"expirationDates"`
			Options         []struct {
				ExpirationDate int64         `json:"expirationDate"`
				Calls          []yahooOption `json:"calls"`
				Puts           []yahooOption `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"optionChain"`
}

type yahooOption struct {
	ContractSymbol    string  `json:"contractSymbol"`
	Strike            float64 `json:"strike"`
	LastPrice         float64 `json:"lastPrice"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	Volume            int64   `json:"volume"`
	OpenInterest      int64   `json:"openInterest"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func (f *YahooProvider) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

func (f *YahooProvider) fetchChart(ctx context.Context, symbol, rng string) (*yahooChart, error) {
	path := fmt.Sprintf("/v8/finance/chart/%s?interval=1d&range=%s", url.PathEscape(f.yahooSymbol(symbol)), rng)
	var chart yahooChart
	if err := f.get(ctx, path, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}
	return &chart, nil
}

// GetQuotes fetches each symbol's chart meta. Failed symbols are left out
// of the map and reported in the joined error.
func (f *YahooProvider) GetQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	out := make(map[string]model.Quote, len(symbols))
	var errs []error
	for _, sym := range symbols {
		chart, err := f.fetchChart(ctx, sym, "5d")
		if err != nil {
			errs = append(errs, fmt.Errorf("quote %s: %w", sym, err))
			continue
		}
		meta := chart.Chart.Result[0].Meta
		prev := meta.ChartPreviousClose
		if prev == 0 {
			prev = meta.PreviousClose
		}
		q := model.Quote{
			Last:      round(meta.RegularMarketPrice, 4),
			Volume:    meta.RegularMarketVolume,
			PrevClose: round(prev, 4),
		}
		if prev > 0 {
			q.Change = round(meta.RegularMarketPrice-prev, 4)
			q.ChangePct = round(q.Change/prev*100, 2)
		}
		out[sym] = q
	}
	return out, errors.Join(errs...)
}

func (f *YahooProvider) GetHistorical(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	// Yahoo ranges are calendar based; ask for enough to cover the trading days.
	rng := "2y"
	switch {
	case days <= 20:
		rng = "1mo"
	case days <= 60:
		rng = "3mo"
	case days <= 120:
		rng = "6mo"
	case days <= 250:
		rng = "1y"
	}
	chart, err := f.fetchChart(ctx, symbol, rng)
	if err != nil {
		return nil, err
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue // null bars (holidays, halted sessions)
		}
		bar := model.OHLCV{Time: civilDate(time.Unix(ts, 0).UTC()), Close: *quote.Close[i]}
		if i < len(quote.Open) {
			bar.Open = deref(quote.Open[i])
		}
		if i < len(quote.High) {
			bar.High = deref(quote.High[i])
		}
		if i < len(quote.Low) {
			bar.Low = deref(quote.Low[i])
		}
		if i < len(quote.Volume) {
			bar.Volume = deref(quote.Volume[i])
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

func (f *YahooProvider) fetchOptions(ctx context.Context, symbol string, date int64) (*yahooOptions, error) {
	path := "/v7/finance/options/" + url.PathEscape(f.yahooSymbol(symbol))
	if date > 0 {
		path += fmt.Sprintf("?date=%d", date)
	}
	var opts yahooOptions
	if err := f.get(ctx, path, &opts); err != nil {
		return nil, err
	}
	if opts.OptionChain.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", opts.OptionChain.Error.Description)
	}
	if len(opts.OptionChain.Result) == 0 {
		return nil, fmt.Errorf("yahoo options %s: %w", symbol, ErrNoData)
	}
	return &opts, nil
}

func (f *YahooProvider) GetOptionExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	opts, err := f.fetchOptions(ctx, symbol, 0)
	if err != nil {
		return nil, err
	}
	dates := opts.OptionChain.Result[0].ExpirationDates
	out := make([]time.Time, len(dates))
	for i, d := range dates {
		out[i] = civilDate(time.Unix(d, 0).UTC())
	}
	return out, nil
}

// GetOptionChain returns calls followed by puts for one expiration.
func (f *YahooProvider) GetOptionChain(ctx context.Context, symbol string, expiration time.Time) ([]model.OptionContract, error) {
	exp := civilDate(expiration)
	opts, err := f.fetchOptions(ctx, symbol, exp.Unix())
	if err != nil {
		return nil, err
	}
	res := opts.OptionChain.Result[0]
	if len(res.Options) == 0 {
		return nil, nil
	}

	dte := daysBetween(f.Now(), exp)
	var out []model.OptionContract
	add := func(rows []yahooOption, typ model.OptionType) {
		for _, r := range rows {
			out = append(out, model.OptionContract{
				ContractID:        r.ContractSymbol,
				Type:              typ,
				Expiration:        exp,
				DTE:               dte,
				Strike:            r.Strike,
				Bid:               r.Bid,
				Ask:               r.Ask,
				Last:              r.LastPrice,
				Volume:            r.Volume,
				OpenInterest:      r.OpenInterest,
				ImpliedVolatility: r.ImpliedVolatility,
			})
		}
	}
	add(res.Options[0].Calls, model.Call)
	add(res.Options[0].Puts, model.Put)
	return out, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"PremiumSentinel/internal/model"
)

// ErrNoData is returned when a provider answers but has nothing for the request.
var ErrNoData = errors.New("no data returned")

// Provider is a source of quotes, option chains and daily history.
//
// GetQuotes may return a partial map together with an error when only some
// symbols failed.
type Provider interface {
	Name() string
	GetQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error)
	GetOptionExpirations(ctx context.Context, symbol string) ([]time.Time, error)
	GetOptionChain(ctx context.Context, symbol string, expiration time.Time) ([]model.OptionContract, error)
	GetHistorical(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// civilDate is UTC midnight of the calendar date t falls on in its own location.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(civilDate(b).Sub(civilDate(a)).Hours() / 24)
}

// NearestExpiration picks the future expiration closest to today plus
// targetDTE days. Expirations on or before today are skipped; ties go to the
// earlier entry in exps.
func NearestExpiration(exps []time.Time, targetDTE int, today time.Time) (time.Time, bool) {
	var (
		best     time.Time
		bestDist = -1
	)
	for _, e := range exps {
		if daysBetween(today, e) <= 0 {
			continue
		}
		dist := daysBetween(today, e) - targetDTE
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = e, dist
		}
	}
	return best, bestDist >= 0
}

// Package metrics exposes Prometheus collectors for refresh passes,
// provider health, cache efficiency and the current regime.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"PremiumSentinel/internal/model"
)

var colors = []model.Color{model.Green, model.Yellow, model.Red, model.Unknown}

// Registry holds every collector. A nil *Registry is valid and records nothing.
type Registry struct {
	gatherer prometheus.Gatherer

	RefreshDuration *prometheus.HistogramVec
	ProviderErrors  *prometheus.CounterVec
	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec
	RegimeColor     *prometheus.GaugeVec
	GreenContracts  *prometheus.GaugeVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		gatherer: reg,
		RefreshDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "premium_sentinel_refresh_duration_seconds",
				Help:    "Duration of a market data refresh pass",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"result"},
		),
		ProviderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "premium_sentinel_provider_errors_total",
				Help: "Market data provider call failures",
			},
			[]string{"provider", "op"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "premium_sentinel_cache_hits_total",
				Help: "TTL cache hits by entry kind",
			},
			[]string{"kind"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "premium_sentinel_cache_misses_total",
				Help: "TTL cache misses by entry kind",
			},
			[]string{"kind"},
		),
		RegimeColor: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "premium_sentinel_regime_color",
				Help: "1 for the current traffic-light color of each subject, 0 otherwise",
			},
			[]string{"subject", "color"},
		),
		GreenContracts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "premium_sentinel_green_contracts",
				Help: "Green contracts per tracked ETF on the last board",
			},
			[]string{"symbol"},
		),
	}
	reg.MustRegister(
		r.RefreshDuration,
		r.ProviderErrors,
		r.CacheHits,
		r.CacheMisses,
		r.RegimeColor,
		r.GreenContracts,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// ObserveRefresh records the duration of one refresh pass.
func (r *Registry) ObserveRefresh(d time.Duration, stale bool) {
	if r == nil {
		return
	}
	result := "ok"
	if stale {
		result = "stale"
	}
	r.RefreshDuration.WithLabelValues(result).Observe(d.Seconds())
}

// ProviderError counts a failed provider call.
func (r *Registry) ProviderError(provider, op string) {
	if r == nil {
		return
	}
	r.ProviderErrors.WithLabelValues(provider, op).Inc()
}

// CacheHit counts a cache hit for kind.
func (r *Registry) CacheHit(kind string) {
	if r == nil {
		return
	}
	r.CacheHits.WithLabelValues(kind).Inc()
}

// CacheMiss counts a cache miss for kind.
func (r *Registry) CacheMiss(kind string) {
	if r == nil {
		return
	}
	r.CacheMisses.WithLabelValues(kind).Inc()
}

// SetRegime marks color as the active one for subject.
func (r *Registry) SetRegime(subject string, color model.Color) {
	if r == nil {
		return
	}
	for _, c := range colors {
		v := 0.0
		if c == color {
			v = 1
		}
		r.RegimeColor.WithLabelValues(subject, string(c)).Set(v)
	}
}

// SetGreenContracts records the green tally for an ETF.
func (r *Registry) SetGreenContracts(symbol string, n int) {
	if r == nil {
		return
	}
	r.GreenContracts.WithLabelValues(symbol).Set(float64(n))
}

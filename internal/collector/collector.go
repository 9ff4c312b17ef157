// Package collector fetches market data from a provider through the TTL
// cache and the durable store, producing one MarketData snapshot per pass.
package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"PremiumSentinel/internal/cache"
	"PremiumSentinel/internal/calculator"
	"PremiumSentinel/internal/config"
	"PremiumSentinel/internal/greeks"
	"PremiumSentinel/internal/metrics"
	"PremiumSentinel/internal/model"
	"PremiumSentinel/internal/recorder"
)

// MarketDataKey is the cache key of the last assembled snapshot.
const MarketDataKey = "market_data"

// Collector orchestrates one refresh pass.
type Collector struct {
	provider Provider
	cache    cache.Cache
	store    recorder.Recorder
	cfg      *config.Holder
	metrics  *metrics.Registry
	log      zerolog.Logger
	now      func() time.Time

	mu sync.Mutex // serializes refresh passes
}

// NewCollector creates a new Collector.
func NewCollector(p Provider, c cache.Cache, store recorder.Recorder, cfg *config.Holder, m *metrics.Registry, log zerolog.Logger) *Collector {
	return &Collector{
		provider: p,
		cache:    c,
		store:    store,
		cfg:      cfg,
		metrics:  m,
		log:      log.With().Str("component", "collector").Str("provider", p.Name()).Logger(),
		now:      time.Now,
	}
}

// pass accumulates the outcome of one refresh.
type pass struct {
	cfg   *config.Config
	ttl   time.Duration
	stale bool
	errs  []string
}

func (p *pass) fail(msg string) {
	p.stale = true
	p.errs = append(p.errs, msg)
}

type etfResult struct {
	exps   map[int]time.Time
	chains map[string][]model.OptionContract
	stale  bool
	errs   []string
}

// Market returns the cached snapshot while it is fresh, otherwise refreshes.
func (c *Collector) Market(ctx context.Context) (*model.MarketData, error) {
	var md model.MarketData
	if ok, _ := cache.GetJSON(ctx, c.cache, MarketDataKey, &md); ok {
		c.metrics.CacheHit(MarketDataKey)
		return &md, nil
	}
	c.metrics.CacheMiss(MarketDataKey)
	return c.Refresh(ctx)
}

// ForceRefresh drops every cached entry before refreshing, so the pass
// reaches the provider.
func (c *Collector) ForceRefresh(ctx context.Context) (*model.MarketData, error) {
	if err := c.cache.Clear(ctx); err != nil {
		c.log.Warn().Err(err).Msg("clear cache")
	}
	return c.Refresh(ctx)
}

// Refresh fetches everything one pass needs. Provider failures mark the
// snapshot stale and are reported in LastError; they never abort the pass.
// An error is returned only when ctx is done.
func (c *Collector) Refresh(ctx context.Context) (*model.MarketData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.now()
	cfg := c.cfg.Current()
	p := &pass{cfg: cfg, ttl: time.Duration(cfg.RefreshIntervalMinutes) * time.Minute}

	quotes := c.quotes(ctx, p)

	historical := make(map[string][]model.OHLCV, 3)
	for _, sym := range []string{cfg.IndexProxies.SP500, cfg.IndexProxies.Nasdaq} {
		historical[sym] = c.historical(ctx, p, sym, cfg.HistoricalDays)
	}
	// IV rank needs a full year of VIX closes.
	historical[cfg.VIXSymbol] = c.historical(ctx, p, cfg.VIXSymbol, max(cfg.HistoricalDays, calculator.TradingDaysPerYear))

	results := make([]etfResult, len(cfg.ETFs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, etf := range cfg.ETFs {
		g.Go(func() error {
			results[i] = c.etf(gctx, p, etf, quotes[etf].Last)
			return nil
		})
	}
	_ = g.Wait()

	md := &model.MarketData{
		Quotes:      quotes,
		Chains:      make(map[string]map[string][]model.OptionContract, len(cfg.ETFs)),
		Historical:  historical,
		Expirations: make(map[string]map[int]time.Time, len(cfg.ETFs)),
		LastRefresh: c.now(),
	}
	for i, etf := range cfg.ETFs {
		md.Chains[etf] = results[i].chains
		md.Expirations[etf] = results[i].exps
		if results[i].stale {
			p.stale = true
		}
		p.errs = append(p.errs, results[i].errs...)
	}
	md.Stale = p.stale
	if len(p.errs) > 0 {
		md.LastError = p.errs[len(p.errs)-1]
	}

	if err := ctx.Err(); err != nil {
		return md, err
	}
	if err := cache.SetJSON(ctx, c.cache, MarketDataKey, md, p.ttl); err != nil {
		c.log.Warn().Err(err).Msg("cache market data")
	}

	elapsed := c.now().Sub(start)
	c.metrics.ObserveRefresh(elapsed, md.Stale)
	c.log.Info().Bool("stale", md.Stale).Dur("took", elapsed).Int("quotes", len(quotes)).Msg("refresh complete")
	return md, nil
}

func (c *Collector) quotes(ctx context.Context, p *pass) map[string]model.Quote {
	quotes := map[string]model.Quote{}
	if c.cached(ctx, "quotes", "quotes", &quotes) {
		return quotes
	}
	got, err := c.provider.GetQuotes(ctx, p.cfg.QuoteSymbols())
	if err != nil {
		c.log.Error().Err(err).Msg("fetch quotes")
		p.fail(fmt.Sprintf("Quote fetch failed: %v", err))
		if got == nil {
			return map[string]model.Quote{}
		}
		return got
	}
	c.put(ctx, "quotes", got, p.ttl)
	return got
}

func (c *Collector) historical(ctx context.Context, p *pass, symbol string, days int) []model.OHLCV {
	key := "historical_" + symbol
	var bars []model.OHLCV
	if c.cached(ctx, key, "historical", &bars) {
		return bars
	}

	log := c.log.With().Str("symbol", symbol).Logger()
	bars, err := c.provider.GetHistorical(ctx, symbol, days)
	if err == nil && len(bars) > 0 {
		if err := c.store.SaveHistorical(ctx, symbol, bars); err != nil {
			log.Warn().Err(err).Msg("persist historical")
		}
		c.put(ctx, key, bars, p.ttl)
		return bars
	}

	if err != nil {
		log.Error().Err(err).Msg("fetch historical")
		p.fail(fmt.Sprintf("Historical fetch failed for %s: %v", symbol, err))
	}
	stored, loadErr := c.store.LoadHistorical(ctx, symbol, days)
	if loadErr != nil {
		log.Warn().Err(loadErr).Msg("load stored historical")
	}
	if len(stored) == 0 {
		p.stale = true
	} else {
		log.Info().Int("bars", len(stored)).Msg("using stored historical")
	}
	return stored
}

func (c *Collector) etf(ctx context.Context, p *pass, etf string, underlying float64) etfResult {
	res := etfResult{
		exps:   make(map[int]time.Time),
		chains: make(map[string][]model.OptionContract),
	}
	log := c.log.With().Str("symbol", etf).Logger()

	var exps []time.Time
	expKey := "expirations_" + etf
	if !c.cached(ctx, expKey, "expirations", &exps) {
		got, err := c.provider.GetOptionExpirations(ctx, etf)
		if err != nil {
			log.Error().Err(err).Msg("fetch expirations")
			res.stale = true
			res.errs = append(res.errs, fmt.Sprintf("Expiration fetch failed for %s: %v", etf, err))
		} else {
			exps = got
			c.put(ctx, expKey, exps, p.ttl)
		}
	}

	today := c.now()
	for _, target := range p.cfg.ExpirationsDTE {
		exp, ok := NearestExpiration(exps, target, today)
		if !ok {
			continue
		}
		res.exps[target] = exp
		expStr := model.ExpirationKey(exp)

		var chain []model.OptionContract
		chainKey := "chain_" + etf + "_" + expStr
		if !c.cached(ctx, chainKey, "chain", &chain) {
			got, err := c.provider.GetOptionChain(ctx, etf, exp)
			if err != nil {
				log.Error().Err(err).Str("expiration", expStr).Msg("fetch chain")
				res.stale = true
				res.errs = append(res.errs, fmt.Sprintf("Chain fetch failed for %s: %v", etf, err))
				continue
			}
			chain = got
			// an unpriced chain is not cached so the next pass can add greeks
			if len(chain) > 0 && underlying > 0 {
				chain = greeks.ComputeChain(chain, underlying, p.cfg.RiskFreeRate)
				c.put(ctx, chainKey, chain, p.ttl)
			}
		}
		if len(chain) > 0 {
			res.chains[expStr] = chain
		}
	}
	return res
}

// cached reads key into dst, counting the hit or miss under kind.
func (c *Collector) cached(ctx context.Context, key, kind string, dst any) bool {
	ok, err := cache.GetJSON(ctx, c.cache, key, dst)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache read")
	}
	if ok {
		c.metrics.CacheHit(kind)
		return true
	}
	c.metrics.CacheMiss(kind)
	return false
}

func (c *Collector) put(ctx context.Context, key string, v any, ttl time.Duration) {
	if err := cache.SetJSON(ctx, c.cache, key, v, ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write")
	}
}

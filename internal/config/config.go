package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Range is a two-element [low, high] numeric range.
type Range []float64

// Low returns the lower bound.
func (r Range) Low() float64 { return r[0] }

// High returns the upper bound.
func (r Range) High() float64 { return r[1] }

// Contains reports whether v lies within [low, high] inclusive.
func (r Range) Contains(v float64) bool {
	return v >= r[0] && v <= r[1]
}

func (r Range) validate(name string) error {
	if len(r) != 2 {
		return fmt.Errorf("%s must have exactly 2 elements, got %d", name, len(r))
	}
	if r[0] > r[1] {
		return fmt.Errorf("%s low %.4f exceeds high %.4f", name, r[0], r[1])
	}
	return nil
}

// DeltaBands holds the acceptable delta ranges per option type.
type DeltaBands struct {
	ShortCalls      Range `yaml:"short_calls" json:"short_calls"`
	ShortCallsFocus Range `yaml:"short_calls_focus" json:"short_calls_focus"`
	ShortPuts       Range `yaml:"short_puts" json:"short_puts"`
	ShortPutsFocus  Range `yaml:"short_puts_focus" json:"short_puts_focus"`
}

// Liquidity holds open interest and volume thresholds.
type Liquidity struct {
	MinOI      int64 `yaml:"min_oi" json:"min_oi"`
	MinVolume  int64 `yaml:"min_volume" json:"min_volume"`
	MarginalOI int64 `yaml:"marginal_oi" json:"marginal_oi"`
}

// VIXRegime holds the VIX green band and red threshold.
type VIXRegime struct {
	Green Range   `yaml:"green" json:"green"`
	Red   float64 `yaml:"red" json:"red"`
}

// RSIThresholds holds the RSI label and regime thresholds.
type RSIThresholds struct {
	Overbought  float64 `yaml:"overbought" json:"overbought"`
	Oversold    float64 `yaml:"oversold" json:"oversold"`
	NeutralLow  float64 `yaml:"neutral_low" json:"neutral_low"`
	NeutralHigh float64 `yaml:"neutral_high" json:"neutral_high"`
}

// IndexProxies maps the tracked indices to tradable proxy symbols.
type IndexProxies struct {
	SP500  string `yaml:"sp500" json:"sp500"`
	Nasdaq string `yaml:"nasdaq" json:"nasdaq"`
}

// Config holds all application configuration. A loaded Config is treated
// as an immutable snapshot; use Holder to swap it between passes.
type Config struct {
	AnnualizedReturnTarget float64       `yaml:"annualized_return_target" json:"annualized_return_target"`
	DeltaBands             DeltaBands    `yaml:"delta_bands" json:"delta_bands"`
	Liquidity              Liquidity     `yaml:"liquidity" json:"liquidity"`
	VIXRegime              VIXRegime     `yaml:"vix_regime" json:"vix_regime"`
	RSIThresholds          RSIThresholds `yaml:"rsi_thresholds" json:"rsi_thresholds"`
	RiskFreeRate           float64       `yaml:"risk_free_rate" json:"risk_free_rate"`
	ETFs                   []string      `yaml:"etfs" json:"etfs"`
	NasdaqETFs             []string      `yaml:"nasdaq_etfs" json:"nasdaq_etfs"`
	IndexProxies           IndexProxies  `yaml:"index_proxies" json:"index_proxies"`
	VIXSymbol              string        `yaml:"vix_symbol" json:"vix_symbol"`
	ExpirationsDTE         []int         `yaml:"expirations_dte" json:"expirations_dte"`
	HistoricalDays         int           `yaml:"historical_days" json:"historical_days"`
	RefreshIntervalMinutes int           `yaml:"refresh_interval_minutes" json:"refresh_interval_minutes"`

	DataProvider string `yaml:"data_provider" json:"data_provider"`
	DataSource   struct {
		BaseURL string `yaml:"base_url" json:"base_url"`
		APIKey  string `yaml:"api_key" json:"-"`
	} `yaml:"data_source" json:"data_source"`
	RateLimit struct {
		RPS   float64 `yaml:"rps" json:"rps"`
		Burst int     `yaml:"burst" json:"burst"`
	} `yaml:"rate_limit" json:"rate_limit"`
	Telegram struct {
		BotToken string `yaml:"bot_token" json:"-"`
		ChatID   string `yaml:"chat_id" json:"-"`
	} `yaml:"telegram" json:"-"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron" json:"refresh_cron"`
		DailyCron   string `yaml:"daily_cron" json:"daily_cron"`
	} `yaml:"schedule" json:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`
	} `yaml:"database" json:"database"`
	Cache struct {
		RedisAddr string `yaml:"redis_addr" json:"redis_addr"`
	} `yaml:"cache" json:"cache"`
	Server struct {
		Addr string `yaml:"addr" json:"addr"`
	} `yaml:"server" json:"server"`
	Log struct {
		Level    string `yaml:"level" json:"level"`
		FilePath string `yaml:"file_path" json:"file_path"`
	} `yaml:"log" json:"log"`
	StateFile string `yaml:"state_file" json:"state_file"`
	Proxy     string `yaml:"proxy" json:"-"`
}

// Default returns a Config populated with the documented defaults.
func Default() *Config {
	cfg := &Config{
		AnnualizedReturnTarget: 30,
		DeltaBands: DeltaBands{
			ShortCalls:      Range{0.10, 0.50},
			ShortCallsFocus: Range{0.20, 0.30},
			ShortPuts:       Range{-0.50, -0.10},
			ShortPutsFocus:  Range{-0.30, -0.20},
		},
		Liquidity:     Liquidity{MinOI: 200, MinVolume: 20, MarginalOI: 50},
		VIXRegime:     VIXRegime{Green: Range{18, 28}, Red: 35},
		RSIThresholds: RSIThresholds{Overbought: 70, Oversold: 30, NeutralLow: 40, NeutralHigh: 60},
		RiskFreeRate:  0.05,
		ETFs:          []string{"SPXS", "SQQQ", "SH", "SDS"},
		NasdaqETFs:    []string{"SQQQ"},
		IndexProxies:  IndexProxies{SP500: "SPY", Nasdaq: "QQQ"},
		VIXSymbol:     "^VIX",
		ExpirationsDTE: []int{7, 14},
		HistoricalDays: 150,

		RefreshIntervalMinutes: 5,
		DataProvider:           "yahoo",
		StateFile:              "data/watch_state.json",
	}
	cfg.RateLimit.RPS = 2
	cfg.RateLimit.Burst = 4
	cfg.Schedule.RefreshCron = "0 */5 * * * 1-5"
	cfg.Schedule.DailyCron = "0 30 16 * * 1-5"
	cfg.Database.SQLitePath = "data/premium_sentinel.db"
	cfg.Server.Addr = "127.0.0.1:8080"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads config from a YAML file on top of the defaults, then applies
// environment variable overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ANNUALIZED_RETURN_TARGET"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.AnnualizedReturnTarget = f
		}
	}

	return cfg, nil
}

// Validate checks that the threshold structure is well formed.
func (c *Config) Validate() error {
	bands := []struct {
		name string
		r    Range
	}{
		{"delta_bands.short_calls", c.DeltaBands.ShortCalls},
		{"delta_bands.short_calls_focus", c.DeltaBands.ShortCallsFocus},
		{"delta_bands.short_puts", c.DeltaBands.ShortPuts},
		{"delta_bands.short_puts_focus", c.DeltaBands.ShortPutsFocus},
		{"vix_regime.green", c.VIXRegime.Green},
	}
	for _, b := range bands {
		if err := b.r.validate(b.name); err != nil {
			return err
		}
	}
	if c.VIXRegime.Red < c.VIXRegime.Green.High() {
		return fmt.Errorf("vix_regime.red %.2f must not be below the green band high %.2f", c.VIXRegime.Red, c.VIXRegime.Green.High())
	}
	if c.Liquidity.MarginalOI > c.Liquidity.MinOI {
		return fmt.Errorf("liquidity.marginal_oi %d exceeds liquidity.min_oi %d", c.Liquidity.MarginalOI, c.Liquidity.MinOI)
	}
	if c.RSIThresholds.NeutralLow > c.RSIThresholds.NeutralHigh {
		return fmt.Errorf("rsi_thresholds.neutral_low exceeds neutral_high")
	}
	if len(c.ETFs) == 0 {
		return fmt.Errorf("etfs must list at least one symbol")
	}
	if c.IndexProxies.SP500 == "" || c.IndexProxies.Nasdaq == "" {
		return fmt.Errorf("index_proxies.sp500 and index_proxies.nasdaq are required")
	}
	if c.VIXSymbol == "" {
		return fmt.Errorf("vix_symbol is required")
	}
	if c.HistoricalDays <= 0 {
		return fmt.Errorf("historical_days must be positive")
	}
	if c.RefreshIntervalMinutes <= 0 {
		return fmt.Errorf("refresh_interval_minutes must be positive")
	}
	switch c.DataProvider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("unknown data_provider %q", c.DataProvider)
	}
	return nil
}

// TracksNasdaq reports whether the ETF is benchmarked against the Nasdaq proxy.
func (c *Config) TracksNasdaq(symbol string) bool {
	return slices.Contains(c.NasdaqETFs, symbol)
}

// QuoteSymbols lists every symbol a refresh pass needs a quote for.
func (c *Config) QuoteSymbols() []string {
	syms := make([]string, 0, len(c.ETFs)+3)
	syms = append(syms, c.ETFs...)
	syms = append(syms, c.IndexProxies.SP500, c.IndexProxies.Nasdaq, c.VIXSymbol)
	return syms
}

// Holder keeps the current configuration snapshot. Readers take a snapshot
// once per computation pass; Reload swaps it atomically between passes.
type Holder struct {
	path string
	cur  atomic.Pointer[Config]
}

// NewHolder wraps an already loaded config.
func NewHolder(path string, cfg *Config) *Holder {
	h := &Holder{path: path}
	h.cur.Store(cfg)
	return h
}

// Current returns the active snapshot.
func (h *Holder) Current() *Config {
	return h.cur.Load()
}

// Reload re-reads the file. The previous snapshot stays active on error.
func (h *Holder) Reload() (*Config, error) {
	cfg, err := Load(h.path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	h.cur.Store(cfg)
	return cfg, nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"PremiumSentinel/internal/cache"
	"PremiumSentinel/internal/collector"
	"PremiumSentinel/internal/config"
	"PremiumSentinel/internal/logging"
	"PremiumSentinel/internal/metrics"
	"PremiumSentinel/internal/recorder"
)

const defaultConfigPath = "configs/config.yaml"

// app holds what every subcommand needs.
type app struct {
	configPath string
	cfg        *config.Holder
	log        zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "sentinel",
		Short: "PremiumSentinel - premium-selling regime monitor for inverse ETFs",
		Long: `PremiumSentinel watches VIX, S&P 500 and Nasdaq technicals and the option
chains of inverse ETFs, rating each short call or cash-secured put with a
green/yellow/red traffic light.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	path := defaultConfigPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", path, "path to the YAML config file")

	root.AddCommand(newRunCmd(a), newScanCmd(a))
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	a.cfg = config.NewHolder(a.configPath, cfg)
	a.log = logging.New(logging.Options{Level: cfg.Log.Level, FilePath: cfg.Log.FilePath})
	return nil
}

func newProvider(cfg *config.Config) collector.Provider {
	switch cfg.DataProvider {
	case "mock":
		return collector.NewMockProvider()
	case "rest":
		return collector.NewRESTProvider(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	default:
		return collector.NewYahooProvider(cfg.Proxy)
	}
}

func newCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) cache.Cache {
	if cfg.Cache.RedisAddr == "" {
		return cache.NewMemory()
	}
	rc, err := cache.NewRedis(ctx, cfg.Cache.RedisAddr)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
		return cache.NewMemory()
	}
	log.Info().Str("addr", cfg.Cache.RedisAddr).Msg("using redis cache")
	return rc
}

func newRecorder(cfg *config.Config, log zerolog.Logger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

// stack is the data path shared by run and scan.
type stack struct {
	guard     *collector.GuardedProvider
	cache     cache.Cache
	recorder  recorder.Recorder
	collector *collector.Collector
}

func (a *app) buildStack(ctx context.Context, p collector.Provider, m *metrics.Registry) *stack {
	cfg := a.cfg.Current()
	a.log.Info().Str("provider", p.Name()).Msg("data source")
	s := &stack{
		guard:    collector.NewGuardedProvider(p, cfg.RateLimit.RPS, cfg.RateLimit.Burst, m, a.log),
		cache:    newCache(ctx, cfg, a.log),
		recorder: newRecorder(cfg, a.log),
	}
	s.collector = collector.NewCollector(s.guard, s.cache, s.recorder, a.cfg, m, a.log)
	return s
}

func (s *stack) Close() {
	s.recorder.Close()
	if rc, ok := s.cache.(*cache.Redis); ok {
		rc.Close()
	}
}

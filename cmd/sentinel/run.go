package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"PremiumSentinel/internal/metrics"
	"PremiumSentinel/internal/notifier"
	"PremiumSentinel/internal/scheduler"
	"PremiumSentinel/internal/server"
	"PremiumSentinel/internal/watch"
)

func newRunCmd(a *app) *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler, Telegram bot and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if os.Getenv("RUN_ON_START") == "true" {
				runOnStart = true
			}
			return a.run(cmd.Context(), runOnStart)
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "execute a refresh pass immediately")
	return cmd
}

func (a *app) run(parent context.Context, runOnStart bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := a.cfg.Current()
	a.log.Info().Msg("PremiumSentinel starting")

	m := metrics.New()
	st := a.buildStack(ctx, newProvider(cfg), m)
	defer st.Close()

	w, err := watch.NewWatcher(cfg.StateFile, a.log)
	if err != nil {
		return err
	}
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, a.log)

	sched := scheduler.NewScheduler(ctx, st.collector, a.cfg, w, tn, st.recorder, m, a.log)
	if err := sched.RegisterAll(); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := server.NewServer(st.collector, a.cfg, m, server.Options{
		Addr:       cfg.Server.Addr,
		Strategy:   sched.Strategy,
		Circuit:    st.guard.State,
		CacheWrite: st.cache.LastRefresh,
	}, a.log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		return srv.Shutdown(shutdownCtx)
	})
	if tn.Enabled() {
		g.Go(func() error {
			tn.StartPolling(gctx, sched.HandleCommand)
			return nil
		})
		a.log.Info().Msg("telegram polling started")
	}
	g.Go(func() error {
		a.reloadOnHangup(gctx)
		return nil
	})
	if runOnStart {
		go sched.RunRefreshNow()
	}

	a.log.Info().Msg("PremiumSentinel is running. Press Ctrl+C to stop.")
	err = g.Wait()
	a.log.Info().Msg("PremiumSentinel stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// reloadOnHangup swaps in a re-read config on SIGHUP. Passes already running
// keep the snapshot they started with.
func (a *app) reloadOnHangup(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if _, err := a.cfg.Reload(); err != nil {
				a.log.Error().Err(err).Msg("config reload failed, keeping previous config")
				continue
			}
			a.log.Info().Msg("config reloaded")
		}
	}
}

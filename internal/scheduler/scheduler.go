// Package scheduler runs the periodic refresh and daily summary tasks and
// answers chat commands against the latest board.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"PremiumSentinel/internal/board"
	"PremiumSentinel/internal/config"
	"PremiumSentinel/internal/metrics"
	"PremiumSentinel/internal/model"
	"PremiumSentinel/internal/notifier"
	"PremiumSentinel/internal/recorder"
	"PremiumSentinel/internal/watch"
)

// MarketSource yields market snapshots; *collector.Collector satisfies it.
type MarketSource interface {
	Market(ctx context.Context) (*model.MarketData, error)
	Refresh(ctx context.Context) (*model.MarketData, error)
	ForceRefresh(ctx context.Context) (*model.MarketData, error)
}

// Sender delivers a formatted message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

const sendRetries = 3

// Scheduler manages all cron tasks.
type Scheduler struct {
	cron     *cron.Cron
	source   MarketSource
	cfg      *config.Holder
	watcher  *watch.Watcher
	notifier Sender
	recorder recorder.Recorder
	metrics  *metrics.Registry
	log      zerolog.Logger
	ctx      context.Context

	mu       sync.RWMutex
	strategy model.Strategy
}

// NewScheduler creates a new Scheduler analyzing short calls until told otherwise.
func NewScheduler(ctx context.Context, src MarketSource, cfg *config.Holder, w *watch.Watcher, n Sender, rec recorder.Recorder, m *metrics.Registry, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		source:   src,
		cfg:      cfg,
		watcher:  w,
		notifier: n,
		recorder: rec,
		metrics:  m,
		log:      log.With().Str("component", "scheduler").Logger(),
		ctx:      ctx,
		strategy: model.ShortCalls,
	}
}

// RegisterAll registers the refresh and daily summary tasks.
func (s *Scheduler) RegisterAll() error {
	sched := s.cfg.Current().Schedule
	if _, err := s.cron.AddFunc(sched.RefreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.cron.AddFunc(sched.DailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunRefreshNow executes the refresh task immediately.
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

// Strategy is the strategy scheduled passes evaluate.
func (s *Scheduler) Strategy() model.Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.strategy
}

// SetStrategy switches the strategy for subsequent passes.
func (s *Scheduler) SetStrategy(st model.Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategy = st
}

func (s *Scheduler) refreshTask() {
	s.refresh(s.source.Refresh)
}

func (s *Scheduler) refresh(fetch func(context.Context) (*model.MarketData, error)) {
	s.log.Info().Msg("running refresh task")
	md, err := fetch(s.ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("refresh")
		return
	}
	b := board.Build(md, s.cfg.Current(), s.Strategy())

	colors := b.Colors()
	for subject, c := range colors {
		s.metrics.SetRegime(subject, c)
	}
	for _, st := range b.ETFs {
		s.metrics.SetGreenContracts(st.Symbol, st.TotalGreen)
	}

	if err := s.recorder.RecordStatus(s.ctx, &recorder.StatusSnapshot{
		At:       md.LastRefresh,
		Strategy: b.Strategy,
		VIX:      colors[board.SubjectVIX],
		SP500:    colors[board.SubjectSP500],
		Nasdaq:   colors[board.SubjectNasdaq],
		ETFs:     b.ETFs,
	}); err != nil {
		s.log.Error().Err(err).Msg("record status")
	}

	changes := s.watcher.Observe(b)
	for _, c := range changes {
		s.log.Info().Str("subject", c.Subject).Str("from", string(c.From)).Str("to", string(c.To)).Msg("regime change")
		if err := s.recorder.RecordRegimeChange(s.ctx, &recorder.RegimeChange{
			At:      md.LastRefresh,
			Subject: c.Subject,
			From:    c.From,
			To:      c.To,
			Reason:  c.Reason,
		}); err != nil {
			s.log.Error().Err(err).Msg("record regime change")
		}
	}
	if len(changes) > 0 {
		s.trySend(notifier.FormatChanges(changes, b.Strategy))
	}
}

func (s *Scheduler) dailyTask() {
	s.log.Info().Msg("running daily summary")
	b, err := s.current()
	if err != nil {
		s.log.Error().Err(err).Msg("daily summary")
		return
	}
	s.trySend(notifier.FormatDailySummary(b, s.cfg.Current().ExpirationsDTE))
}

func (s *Scheduler) current() (*board.Board, error) {
	md, err := s.source.Market(s.ctx)
	if err != nil {
		return nil, err
	}
	return board.Build(md, s.cfg.Current(), s.Strategy()), nil
}

const helpText = "Available commands:\n" +
	"• /status – full board\n" +
	"• /vix – volatility regime\n" +
	"• /etfs – green contracts per ETF\n" +
	"• /strategy [short_calls|cash_secured_puts] – show or switch strategy\n" +
	"• /refresh – refetch everything now and report changes"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// "/status@MyBot" in group chats
	name, _, _ := strings.Cut(fields[0], "@")

	switch name {
	case "/status", "/vix", "/etfs":
		b, err := s.current()
		if err != nil {
			return fmt.Sprintf("❌ Market data unavailable: %v", err)
		}
		switch name {
		case "/vix":
			return notifier.FormatVIX(b)
		case "/etfs":
			return notifier.FormatETFs(b)
		}
		return notifier.FormatBoard(b)
	case "/strategy":
		if len(fields) < 2 {
			return "Current strategy: " + s.Strategy().Label()
		}
		st, err := model.ParseStrategy(fields[1])
		if err != nil {
			return "❌ Unknown strategy. Use short_calls or cash_secured_puts"
		}
		s.SetStrategy(st)
		return "Strategy set to " + st.Label()
	case "/refresh":
		s.refresh(s.source.ForceRefresh)
		return "✅ Refresh complete"
	default:
		return helpText
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.notifier.SendWithRetry(s.ctx, text, sendRetries); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}

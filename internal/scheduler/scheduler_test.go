package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PremiumSentinel/internal/board"
	"PremiumSentinel/internal/config"
	"PremiumSentinel/internal/metrics"
	"PremiumSentinel/internal/model"
	"PremiumSentinel/internal/recorder"
	"PremiumSentinel/internal/watch"
)

type fakeSource struct {
	md      *model.MarketData
	err     error
	refresh int
	forced  int
}

func (f *fakeSource) Market(context.Context) (*model.MarketData, error) { return f.md, f.err }

func (f *fakeSource) Refresh(context.Context) (*model.MarketData, error) {
	f.refresh++
	return f.md, f.err
}

func (f *fakeSource) ForceRefresh(context.Context) (*model.MarketData, error) {
	f.forced++
	return f.md, f.err
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

type fakeRecorder struct {
	recorder.NoopRecorder
	statuses []*recorder.StatusSnapshot
	changes  []*recorder.RegimeChange
}

func (f *fakeRecorder) RecordStatus(_ context.Context, snap *recorder.StatusSnapshot) error {
	f.statuses = append(f.statuses, snap)
	return nil
}

func (f *fakeRecorder) RecordRegimeChange(_ context.Context, evt *recorder.RegimeChange) error {
	f.changes = append(f.changes, evt)
	return nil
}

func marketWithVIX(level float64) *model.MarketData {
	return &model.MarketData{
		Quotes:      map[string]model.Quote{"^VIX": {Last: level}, "SPXS": {Last: 7.5}},
		LastRefresh: time.Date(2026, 10, 15, 15, 0, 0, 0, time.UTC),
	}
}

type fixture struct {
	sched  *Scheduler
	source *fakeSource
	sender *fakeSender
	rec    *fakeRecorder
	reg    *metrics.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.ETFs = []string{"SPXS"}
	w, err := watch.NewWatcher("", zerolog.Nop())
	require.NoError(t, err)

	f := &fixture{
		source: &fakeSource{md: marketWithVIX(22)},
		sender: &fakeSender{},
		rec:    &fakeRecorder{},
		reg:    metrics.New(),
	}
	f.sched = NewScheduler(context.Background(), f.source, config.NewHolder("", cfg), w, f.sender, f.rec, f.reg, zerolog.Nop())
	return f
}

func TestRefreshTask_RecordsAndAlertsOnChange(t *testing.T) {
	f := newFixture(t)

	f.sched.RunRefreshNow()
	assert.Empty(t, f.sender.sent, "first pass only sets the baseline")
	require.Len(t, f.rec.statuses, 1)
	snap := f.rec.statuses[0]
	assert.Equal(t, model.ShortCalls, snap.Strategy)
	assert.Equal(t, model.Green, snap.VIX)
	assert.Equal(t, model.Yellow, snap.SP500)
	require.Len(t, snap.ETFs, 1)
	assert.Equal(t, "SPXS", snap.ETFs[0].Symbol)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.reg.RegimeColor.WithLabelValues(board.SubjectVIX, "green")))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.reg.GreenContracts.WithLabelValues("SPXS")))

	f.source.md = marketWithVIX(40)
	f.sched.RunRefreshNow()
	require.Len(t, f.sender.sent, 1)
	assert.Contains(t, f.sender.sent[0], "Regime change")
	assert.Contains(t, f.sender.sent[0], "<b>VIX</b>: 🟢 green → 🔴 red")
	require.Len(t, f.rec.changes, 1)
	assert.Equal(t, recorder.RegimeChange{
		At:      f.source.md.LastRefresh,
		Subject: board.SubjectVIX,
		From:    model.Green,
		To:      model.Red,
		Reason:  "Extreme stress – consider reducing size or pausing",
	}, *f.rec.changes[0])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.reg.RegimeColor.WithLabelValues(board.SubjectVIX, "red")))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.reg.RegimeColor.WithLabelValues(board.SubjectVIX, "green")))
}

func TestRefreshTask_SourceErrorSkipsPass(t *testing.T) {
	f := newFixture(t)
	f.source.err = context.Canceled

	f.sched.RunRefreshNow()
	assert.Equal(t, 1, f.source.refresh)
	assert.Empty(t, f.rec.statuses)
	assert.Empty(t, f.sender.sent)
}

func TestDailyTask_SendsSummary(t *testing.T) {
	f := newFixture(t)
	f.sched.dailyTask()
	require.Len(t, f.sender.sent, 1)
	assert.Contains(t, f.sender.sent[0], "Daily summary")
	assert.Contains(t, f.sender.sent[0], "No green contracts today")
	assert.Zero(t, f.source.refresh, "summary reads the cached snapshot")
}

func TestHandleCommand(t *testing.T) {
	f := newFixture(t)

	assert.Contains(t, f.sched.HandleCommand("/status"), "<b>PremiumSentinel</b> | Short Calls")
	assert.Contains(t, f.sched.HandleCommand("/status@PremiumSentinelBot"), "<b>PremiumSentinel</b>")
	assert.Contains(t, f.sched.HandleCommand("/vix"), "VIX Regime")
	assert.Contains(t, f.sched.HandleCommand("/etfs"), "ETF Status")
	assert.Contains(t, f.sched.HandleCommand("hello"), "Available commands")
	assert.Contains(t, f.sched.HandleCommand(""), "Available commands")

	assert.Equal(t, "Current strategy: Short Calls", f.sched.HandleCommand("/strategy"))
	assert.Equal(t, "Strategy set to Cash-Secured Puts", f.sched.HandleCommand("/strategy cash_secured_puts"))
	assert.Equal(t, model.CashSecuredPuts, f.sched.Strategy())
	assert.Contains(t, f.sched.HandleCommand("/status"), "Cash-Secured Puts")
	assert.Contains(t, f.sched.HandleCommand("/strategy iron_condor"), "Unknown strategy")
	assert.Equal(t, model.CashSecuredPuts, f.sched.Strategy())

	assert.Equal(t, "✅ Refresh complete", f.sched.HandleCommand("/refresh"))
	assert.Equal(t, 1, f.source.forced)
	assert.Zero(t, f.source.refresh)

	f.source.err = errors.New("provider down")
	assert.Equal(t, "❌ Market data unavailable: provider down", f.sched.HandleCommand("/vix"))
}

func TestRegisterAll(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sched.RegisterAll())
	assert.Len(t, f.sched.cron.Entries(), 2)

	cfg := config.Default()
	cfg.Schedule.DailyCron = "not a cron"
	f.sched.cfg = config.NewHolder("", cfg)
	err := f.sched.RegisterAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register daily task")
}

package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PremiumSentinel/internal/model"
)

func openTestDB(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func day(d int) time.Time {
	return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestHistoricalRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := openTestDB(t)

	bars := []model.OHLCV{
		{Time: day(0), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
		{Time: day(1), Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 200},
		{Time: day(2), Open: 2, High: 3, Low: 1.5, Close: 2.5, Volume: 300},
	}
	require.NoError(t, r.SaveHistorical(ctx, "SPY", bars))

	got, err := r.LoadHistorical(ctx, "SPY", 2)
	require.NoError(t, err)
	require.Len(t, got, 2, "only the most recent days are returned")
	assert.Equal(t, bars[1:], got, "ascending by date")

	none, err := r.LoadHistorical(ctx, "QQQ", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveHistoricalUpsertsByDate(t *testing.T) {
	ctx := context.Background()
	r := openTestDB(t)

	require.NoError(t, r.SaveHistorical(ctx, "SPY", []model.OHLCV{{Time: day(0), Close: 1}}))
	require.NoError(t, r.SaveHistorical(ctx, "SPY", []model.OHLCV{{Time: day(0), Close: 9}, {Time: day(1), Close: 10}}))

	got, err := r.LoadHistorical(ctx, "SPY", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 9.0, got[0].Close)
}

func TestRecordStatusAndRegimeChange(t *testing.T) {
	ctx := context.Background()
	r := openTestDB(t)

	err := r.RecordStatus(ctx, &StatusSnapshot{
		At: day(3), Strategy: model.ShortCalls, VIX: model.Green, SP500: model.Yellow, Nasdaq: model.Red,
		ETFs: []model.ETFStatus{
			{Symbol: "SQQQ", LastPrice: 24.1, GreenCalls: 2, TotalGreen: 2, StatusColor: model.Green},
			{Symbol: "SH", StatusColor: model.Red},
		},
	})
	require.NoError(t, err)

	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM etf_status_snapshots`).Scan(&n))
	assert.Equal(t, 2, n)

	require.NoError(t, r.RecordRegimeChange(ctx, &RegimeChange{
		At: day(3), Subject: "VIX", From: model.Yellow, To: model.Green, Reason: "Favorable for premium selling",
	}))
	var to string
	require.NoError(t, r.db.QueryRow(`SELECT to_color FROM regime_changes WHERE subject = 'VIX'`).Scan(&to))
	assert.Equal(t, "green", to)
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	bars, err := rec.LoadHistorical(context.Background(), "SPY", 10)
	assert.NoError(t, err)
	assert.Nil(t, bars)
	assert.NoError(t, rec.Close())
}

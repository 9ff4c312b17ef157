package recorder

import (
	"context"
	"time"

	"PremiumSentinel/internal/model"
)

// StatusSnapshot is one scheduled refresh worth of ETF aggregates.
type StatusSnapshot struct {
	At       time.Time
	Strategy model.Strategy
	VIX      model.Color
	SP500    model.Color
	Nasdaq   model.Color
	ETFs     []model.ETFStatus
}

// RegimeChange records a subject moving from one color to another.
type RegimeChange struct {
	At      time.Time
	Subject string
	From    model.Color
	To      model.Color
	Reason  string
}

// Recorder persists daily price history and refresh outcomes.
type Recorder interface {
	// SaveHistorical upserts daily bars keyed by (symbol, date).
	SaveHistorical(ctx context.Context, symbol string, bars []model.OHLCV) error
	// LoadHistorical returns up to days of the most recent bars, ascending.
	LoadHistorical(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	RecordStatus(ctx context.Context, snap *StatusSnapshot) error
	RecordRegimeChange(ctx context.Context, evt *RegimeChange) error
	Close() error
}

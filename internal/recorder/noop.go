package recorder

import (
	"context"

	"PremiumSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) SaveHistorical(context.Context, string, []model.OHLCV) error { return nil }

func (n *NoopRecorder) LoadHistorical(context.Context, string, int) ([]model.OHLCV, error) {
	return nil, nil
}

func (n *NoopRecorder) RecordStatus(context.Context, *StatusSnapshot) error { return nil }

func (n *NoopRecorder) RecordRegimeChange(context.Context, *RegimeChange) error { return nil }

func (n *NoopRecorder) Close() error { return nil }

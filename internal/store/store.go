package store

import (
	"context"

	"github.com/calder-ai/uniproxy/internal/store/model"
)

// Repository is the contract for the data layer.
type Repository interface {
	Requests() RequestRepository

	Close() error
}

type RequestRepository interface {
	// Log stores a completed proxied request.
	Log(ctx context.Context, log *model.RequestLog) error
	// GetRecent returns the last N logs.
	GetRecent(ctx context.Context, limit int) ([]model.RequestLog, error)
	// GetDailyStats returns aggregated stats grouped by day.
	GetDailyStats(ctx context.Context, days int) ([]model.DailyStats, error)
}

package repository

import (
	"context"

	"TuniCast/internal/domain/models"
)

// HistoryStore is the raw history collaborator: the system of record for
// per-instrument daily bars, ordered ascending by session date.
type HistoryStore interface {
	// GetHistory returns the full recorded history for one instrument code.
	GetHistory(ctx context.Context, code string) ([]models.Bar, error)
	// GetLatestNBars returns the most recent n bars, ascending.
	GetLatestNBars(ctx context.Context, code string, n int) ([]models.Bar, error)
	// ListInstruments returns every instrument code with recorded history.
	ListInstruments(ctx context.Context) ([]string, error)
	// InsertBars stores ingested bars.
	InsertBars(ctx context.Context, bars []models.Bar) error
	Health(ctx context.Context) error
}

// AnomalySink accepts detected anomaly events for durable storage. The core
// never reads events back.
type AnomalySink interface {
	Publish(ctx context.Context, events []models.AnomalyEvent) error
	Close() error
}

// SentimentSource provides the latest externally computed sentiment score
// for a symbol, in [-1,1]. ok=false means no score is available and callers
// fall back to neutral.
type SentimentSource interface {
	Latest(ctx context.Context, symbol string) (score float64, ok bool, err error)
}

// Metrics records operational counters for the core.
type Metrics interface {
	RecordForecast(symbol string)
	RecordAnomaly(symbol string, kind string)
	RecordRecommendation(symbol string, action string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

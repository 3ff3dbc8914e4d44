package repository

import (
	"context"

	"TuniCast/internal/domain/models"
	"TuniCast/internal/domain/repository"
)

// NoopAnomalySink discards events. Used when Kafka is disabled.
type NoopAnomalySink struct{}

func NewNoopAnomalySink() repository.AnomalySink { return NoopAnomalySink{} }

func (NoopAnomalySink) Publish(_ context.Context, _ []models.AnomalyEvent) error { return nil }

func (NoopAnomalySink) Close() error { return nil }

// NeutralSentimentSource reports no sentiment for every symbol, so the
// decision engine falls back to neutral. Used when Redis is disabled.
type NeutralSentimentSource struct{}

func NewNeutralSentimentSource() repository.SentimentSource { return NeutralSentimentSource{} }

func (NeutralSentimentSource) Latest(_ context.Context, _ string) (float64, bool, error) {
	return 0, false, nil
}

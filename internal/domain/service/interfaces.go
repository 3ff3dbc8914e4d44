package service

import (
	"context"

	"TuniCast/internal/domain/models"
)

// Forecaster scores the latest feature window of an instrument symbol.
type Forecaster interface {
	Predict(ctx context.Context, symbol string) (models.ForecastResult, error)
}

// AnomalyDetector evaluates a current observation against history and
// validates the rule set with synthetic injections.
type AnomalyDetector interface {
	Detect(ctx context.Context, symbol string, obs models.Observation) ([]models.AnomalyEvent, error)
	Validate(ctx context.Context, symbol string, seed int64) (models.ValidationReport, error)
}

// Recommender fuses forecast, sentiment, and anomaly signals into a
// risk-profile-aware recommendation. It never fails: missing inputs
// degrade to neutral values.
type Recommender interface {
	Recommend(ctx context.Context, symbol string, profile models.RiskProfile) (models.Recommendation, error)
}

package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"TuniCast/internal/domain/models"
	"TuniCast/internal/services/anomaly"
	"TuniCast/internal/services/decision"
	"TuniCast/internal/services/symbols"
)

func newRecommendUC(t *testing.T, store *fakeStore, sentiment *fakeSentiment, artifactPath string) (*RecommendUseCase, *fakeMetrics) {
	resolver := symbols.NewResolver(nil)
	metrics := newFakeMetrics()
	log := testLogger(t)
	forecast := NewForecastUseCase(store, resolver, metrics, log, artifactPath)
	anomalies := NewAnomalyUseCase(store, &fakeSink{}, resolver, anomaly.NewDetector(), metrics, log)
	return NewRecommendUseCase(forecast, anomalies, sentiment, decision.NewEngine(), resolver, metrics, log), metrics
}

func TestRecommendWithAllSignals(t *testing.T) {
	store := &fakeStore{bars: map[string][]models.Bar{biatCode: businessBars(biatCode, 90, 1)}}
	uc, metrics := newRecommendUC(t, store, &fakeSentiment{score: 0.4, ok: true}, writeTestArtifact(t, 10))

	rec, err := uc.Recommend(context.Background(), "BIAT", models.RiskModerate)
	require.NoError(t, err)
	require.Contains(t, []models.Action{models.ActionBuy, models.ActionSell, models.ActionHold}, rec.Action)
	require.Equal(t, 0.4, rec.Metrics.SentimentScore)
	require.Equal(t, 0, rec.Metrics.AnomalyCount)
	require.Equal(t, 1, metrics.recommendations[string(rec.Action)])
}

func TestRecommendDegradesToNeutralOnForecastFailure(t *testing.T) {
	store := &fakeStore{bars: map[string][]models.Bar{biatCode: businessBars(biatCode, 90, 2)}}
	// No artifact on disk: the forecast leg fails, the decision still lands.
	uc, metrics := newRecommendUC(t, store, &fakeSentiment{score: 0.6, ok: true},
		filepath.Join(t.TempDir(), "absent.json"))

	rec, err := uc.Recommend(context.Background(), "BIAT", models.RiskModerate)
	require.NoError(t, err)
	require.Equal(t, models.ActionHold, rec.Action)
	require.Equal(t, 0.0, rec.Metrics.ForecastReturn)
	require.Contains(t, rec.Reasons, "no strong signal in either direction")
	require.Equal(t, 1, metrics.errors["recommend_forecast"])
}

func TestRecommendNeutralSentimentWhenUnavailable(t *testing.T) {
	store := &fakeStore{bars: map[string][]models.Bar{biatCode: businessBars(biatCode, 90, 3)}}
	uc, metrics := newRecommendUC(t, store, &fakeSentiment{err: errors.New("redis down")},
		filepath.Join(t.TempDir(), "absent.json"))

	rec, err := uc.Recommend(context.Background(), "BIAT", models.RiskConservative)
	require.NoError(t, err)
	require.Equal(t, 0.0, rec.Metrics.SentimentScore)
	require.Equal(t, 1, metrics.errors["recommend_sentiment"])
}

func TestRecommendUnknownSymbolDegradesToHold(t *testing.T) {
	// An unmapped ticker resolves to itself; every input then degrades to
	// neutral and the engine answers HOLD instead of erroring out.
	uc, metrics := newRecommendUC(t, &fakeStore{}, &fakeSentiment{}, filepath.Join(t.TempDir(), "absent.json"))
	rec, err := uc.Recommend(context.Background(), "NOPE", models.RiskModerate)
	require.NoError(t, err)
	require.Equal(t, models.ActionHold, rec.Action)
	require.Equal(t, 1, metrics.errors["recommend_forecast"])
}

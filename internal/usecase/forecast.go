package usecase

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"TuniCast/internal/domain/models"
	domrepo "TuniCast/internal/domain/repository"
	"TuniCast/internal/domain/service"
	"TuniCast/internal/services/features"
	"TuniCast/internal/services/model"
	"TuniCast/internal/services/sequence"
	"TuniCast/internal/services/symbols"
	"TuniCast/pkg/logger"
)

// ForecastUseCase runs inference for one symbol against the latest stored
// history. The loaded artifact is process-wide state: an immutable
// model+scaler pair behind an atomic pointer, so a reload swaps atomically
// under concurrent requests.
type ForecastUseCase struct {
	store    domrepo.HistoryStore
	resolver *symbols.Resolver
	metrics  domrepo.Metrics
	log      *logger.Logger

	artifactPath string
	artifact     atomic.Pointer[model.Artifact]
}

func NewForecastUseCase(store domrepo.HistoryStore, resolver *symbols.Resolver, metrics domrepo.Metrics, log *logger.Logger, artifactPath string) *ForecastUseCase {
	return &ForecastUseCase{
		store:        store,
		resolver:     resolver,
		metrics:      metrics,
		log:          log,
		artifactPath: artifactPath,
	}
}

// Reload reads the artifact bundle from disk and swaps it in. Requests in
// flight keep the pair they already grabbed.
func (uc *ForecastUseCase) Reload() error {
	art, err := model.LoadArtifact(uc.artifactPath)
	if err != nil {
		return err
	}
	uc.artifact.Store(art)
	uc.log.Info("forecast artifact loaded",
		logger.String("path", uc.artifactPath),
		logger.Int("seq_len", art.SeqLen),
		logger.String("created_at", art.CreatedAt.Format(time.RFC3339)))
	return nil
}

func (uc *ForecastUseCase) current() (*model.Artifact, error) {
	if art := uc.artifact.Load(); art != nil {
		return art, nil
	}
	// Lazy first load; losing a race just loads the same bundle twice.
	if err := uc.Reload(); err != nil {
		return nil, err
	}
	return uc.artifact.Load(), nil
}

// Predict forecasts the next-session and five-session-ahead log returns
// from the instrument's latest feature window.
func (uc *ForecastUseCase) Predict(ctx context.Context, symbol string) (models.ForecastResult, error) {
	start := time.Now()
	defer func() { uc.metrics.RecordLatency("forecast", time.Since(start).Seconds()) }()

	code, mapped := uc.resolver.Resolve(symbol)
	if !mapped {
		uc.log.Debug("symbol not in listing table, using it as code",
			logger.String("symbol", symbol))
	}
	art, err := uc.current()
	if err != nil {
		return models.ForecastResult{}, err
	}

	bars, err := uc.store.GetHistory(ctx, code)
	if err != nil {
		return models.ForecastResult{}, fmt.Errorf("load history for %s: %w", code, err)
	}
	resampled := features.Resample(bars)
	minRaw := art.SeqLen + features.WarmupSessions
	if len(resampled) < minRaw {
		return models.ForecastResult{}, models.InsufficientHistory(
			"%s has %d sessions after resampling, need %d", symbol, len(resampled), minRaw)
	}

	rows := features.AddFeatures(resampled)
	if len(rows) < art.SeqLen {
		return models.ForecastResult{}, models.InsufficientHistory(
			"%s has %d feature rows, need %d", symbol, len(rows), art.SeqLen)
	}

	window := rows[len(rows)-art.SeqLen:]
	scaled, err := scaleWindow(art.Scaler, window)
	if err != nil {
		return models.ForecastResult{}, models.ScalingFailure("scaling inference window", err)
	}

	pred := art.Network.Predict(scaled)
	lastClose := window[len(window)-1].Close

	uc.metrics.RecordForecast(symbol)
	return models.ForecastResult{
		Symbol:       symbol,
		Code:         code,
		CurrentPrice: lastClose,
		PriceT1:      lastClose * math.Exp(pred[0]),
		LogReturnT1:  pred[0],
		LogReturnT5:  pred[1],
	}, nil
}

func scaleWindow(scaler *sequence.RobustScaler, window []models.FeatureRow) ([][]float64, error) {
	out := make([][]float64, len(window))
	for i, row := range window {
		scaled, err := scaler.Transform(row.Vector())
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}

var _ service.Forecaster = (*ForecastUseCase)(nil)

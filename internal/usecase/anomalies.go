package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"TuniCast/internal/domain/models"
	domrepo "TuniCast/internal/domain/repository"
	"TuniCast/internal/domain/service"
	"TuniCast/internal/services/anomaly"
	"TuniCast/internal/services/symbols"
	"TuniCast/pkg/logger"
)

// AnomalyUseCase fronts the statistical detector with storage access and
// event publication. Live detections go to the sink; validation replays
// never do.
type AnomalyUseCase struct {
	store    domrepo.HistoryStore
	sink     domrepo.AnomalySink
	resolver *symbols.Resolver
	detector *anomaly.Detector
	metrics  domrepo.Metrics
	log      *logger.Logger
}

func NewAnomalyUseCase(store domrepo.HistoryStore, sink domrepo.AnomalySink, resolver *symbols.Resolver, detector *anomaly.Detector, metrics domrepo.Metrics, log *logger.Logger) *AnomalyUseCase {
	return &AnomalyUseCase{
		store:    store,
		sink:     sink,
		resolver: resolver,
		detector: detector,
		metrics:  metrics,
		log:      log,
	}
}

// Detect evaluates a current observation against the instrument's trailing
// history and publishes any events.
func (uc *AnomalyUseCase) Detect(ctx context.Context, symbol string, obs models.Observation) ([]models.AnomalyEvent, error) {
	start := time.Now()
	defer func() { uc.metrics.RecordLatency("detect", time.Since(start).Seconds()) }()

	code, mapped := uc.resolver.Resolve(symbol)
	if !mapped {
		uc.log.Debug("symbol not in listing table, using it as code",
			logger.String("symbol", symbol))
	}
	history, err := uc.store.GetLatestNBars(ctx, code, anomaly.VolumeWindow)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", code, err)
	}

	events := uc.detector.Detect(code, history, obs, time.Now().UTC())
	for _, ev := range events {
		uc.metrics.RecordAnomaly(symbol, string(ev.Type))
	}
	uc.publish(ctx, symbol, events)
	return events, nil
}

// DetectLatest runs the detector on the most recent stored session against
// the sessions before it. Used by the recommendation flow; events are
// counted but not published, the live endpoint owns publication.
func (uc *AnomalyUseCase) DetectLatest(ctx context.Context, code string) ([]models.AnomalyEvent, error) {
	history, err := uc.store.GetLatestNBars(ctx, code, anomaly.VolumeWindow+1)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", code, err)
	}
	if len(history) < 2 {
		return nil, nil
	}
	last := history[len(history)-1]
	obs := models.Observation{Close: last.Close, Volume: last.Volume}
	return uc.detector.Detect(code, history[:len(history)-1], obs, time.Now().UTC()), nil
}

// Validate scores the detector on the instrument's recent history with
// synthetic injections. seed 0 draws a fresh seed; any other value makes
// the run reproducible.
func (uc *AnomalyUseCase) Validate(ctx context.Context, symbol string, seed int64) (models.ValidationReport, error) {
	start := time.Now()
	defer func() { uc.metrics.RecordLatency("validate", time.Since(start).Seconds()) }()

	code, mapped := uc.resolver.Resolve(symbol)
	if !mapped {
		uc.log.Debug("symbol not in listing table, using it as code",
			logger.String("symbol", symbol))
	}
	bars, err := uc.store.GetHistory(ctx, code)
	if err != nil {
		return models.ValidationReport{}, fmt.Errorf("load history for %s: %w", code, err)
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	v := anomaly.NewValidator(uc.detector, rand.New(rand.NewSource(seed)))
	report, err := v.Run(code, bars)
	if err != nil {
		return models.ValidationReport{}, err
	}
	report.Symbol = symbol
	return *report, nil
}

// publish forwards events to the sink without failing the request: the
// caller already has the detection result, persistence is best-effort.
func (uc *AnomalyUseCase) publish(ctx context.Context, symbol string, events []models.AnomalyEvent) {
	if len(events) == 0 || uc.sink == nil {
		return
	}
	if err := uc.sink.Publish(ctx, events); err != nil {
		uc.metrics.RecordError("anomaly_publish")
		uc.log.Error("publishing anomaly events failed",
			logger.String("symbol", symbol),
			logger.Int("events", len(events)),
			logger.Error(err))
	}
}

var _ service.AnomalyDetector = (*AnomalyUseCase)(nil)

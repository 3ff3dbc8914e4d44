package usecase

import (
	"context"
	"time"

	"TuniCast/internal/domain/models"
	domrepo "TuniCast/internal/domain/repository"
	"TuniCast/internal/domain/service"
	"TuniCast/internal/services/decision"
	"TuniCast/internal/services/symbols"
	"TuniCast/pkg/logger"
)

// RecommendUseCase fuses the forecast, the latest sentiment score, and the
// live anomaly count into a gated recommendation. Upstream failures
// degrade to neutral inputs rather than failing the request; only an
// unknown symbol is fatal.
type RecommendUseCase struct {
	forecast  *ForecastUseCase
	anomalies *AnomalyUseCase
	sentiment domrepo.SentimentSource
	engine    *decision.Engine
	resolver  *symbols.Resolver
	metrics   domrepo.Metrics
	log       *logger.Logger
}

func NewRecommendUseCase(forecast *ForecastUseCase, anomalies *AnomalyUseCase, sentiment domrepo.SentimentSource, engine *decision.Engine, resolver *symbols.Resolver, metrics domrepo.Metrics, log *logger.Logger) *RecommendUseCase {
	return &RecommendUseCase{
		forecast:  forecast,
		anomalies: anomalies,
		sentiment: sentiment,
		engine:    engine,
		resolver:  resolver,
		metrics:   metrics,
		log:       log,
	}
}

func (uc *RecommendUseCase) Recommend(ctx context.Context, symbol string, profile models.RiskProfile) (models.Recommendation, error) {
	start := time.Now()
	defer func() { uc.metrics.RecordLatency("recommend", time.Since(start).Seconds()) }()

	code, mapped := uc.resolver.Resolve(symbol)
	if !mapped {
		uc.log.Debug("symbol not in listing table, using it as code",
			logger.String("symbol", symbol))
	}

	in := decision.Inputs{Symbol: symbol}

	if fc, err := uc.forecast.Predict(ctx, symbol); err != nil {
		uc.metrics.RecordError("recommend_forecast")
		uc.log.Warn("forecast unavailable, using neutral return",
			logger.String("symbol", symbol), logger.Error(err))
	} else {
		in.ForecastReturn = fc.LogReturnT1
	}

	if score, ok, err := uc.sentiment.Latest(ctx, symbol); err != nil {
		uc.metrics.RecordError("recommend_sentiment")
		uc.log.Warn("sentiment unavailable, using neutral score",
			logger.String("symbol", symbol), logger.Error(err))
	} else if ok {
		in.Sentiment = score
	}

	if events, err := uc.anomalies.DetectLatest(ctx, code); err != nil {
		uc.metrics.RecordError("recommend_anomalies")
		uc.log.Warn("anomaly check unavailable, assuming none",
			logger.String("symbol", symbol), logger.Error(err))
	} else {
		in.AnomalyCount = len(events)
	}

	rec := uc.engine.Decide(in, profile)
	uc.metrics.RecordRecommendation(symbol, string(rec.Action))
	return rec, nil
}

var _ service.Recommender = (*RecommendUseCase)(nil)

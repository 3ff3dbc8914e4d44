package api

import (
	"errors"
	"net/http"
	"time"

	models "TuniCast/internal/domain/models"
	domrepo "TuniCast/internal/domain/repository"
	"TuniCast/internal/service/metrics"
	"TuniCast/internal/service/ratelimit"
	"TuniCast/internal/usecase"
	xcache "TuniCast/pkg/cache"
	xhttp "TuniCast/pkg/http"
	xlogger "TuniCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketEchoHandler exposes the forecast, anomaly and recommendation
// use cases over Echo-based HTTP handlers.
type MarketEchoHandler struct {
	logger    *xlogger.Logger
	forecast  *usecase.ForecastUseCase
	anomalies *usecase.AnomalyUseCase
	recommend *usecase.RecommendUseCase
	store     domrepo.HistoryStore

	rl         *ratelimit.Limiter
	rlCapacity float64
	rlRefill   float64

	cache       xcache.Service
	forecastTTL time.Duration
	validateTTL time.Duration
}

func NewMarketEchoHandler(
	logger *xlogger.Logger,
	forecast *usecase.ForecastUseCase,
	anomalies *usecase.AnomalyUseCase,
	recommend *usecase.RecommendUseCase,
	store domrepo.HistoryStore,
) *MarketEchoHandler {
	metrics.Register()
	return &MarketEchoHandler{
		logger:      logger,
		forecast:    forecast,
		anomalies:   anomalies,
		recommend:   recommend,
		store:       store,
		rl:          ratelimit.New(),
		rlCapacity:  5,
		rlRefill:    2,
		forecastTTL: 15 * time.Second,
		validateTTL: 10 * time.Minute,
	}
}

// SetCache enables response caching for the forecast and validate endpoints.
func (h *MarketEchoHandler) SetCache(c xcache.Service, forecastTTL, validateTTL time.Duration) {
	h.cache = c
	if forecastTTL > 0 {
		h.forecastTTL = forecastTTL
	}
	if validateTTL > 0 {
		h.validateTTL = validateTTL
	}
}

// SetRateLimit overrides the per-client token bucket parameters.
func (h *MarketEchoHandler) SetRateLimit(capacity, refillPerSec float64) {
	if capacity > 0 {
		h.rlCapacity = capacity
	}
	if refillPerSec > 0 {
		h.rlRefill = refillPerSec
	}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api/v1")
	g.GET("/forecast", h.Forecast)
	g.POST("/anomalies/detect", h.DetectAnomalies)
	g.GET("/anomalies/validate", h.ValidateDetector)
	g.GET("/recommend", h.Recommend)
}

func (h *MarketEchoHandler) Forecast(c echo.Context) error {
	const endpoint = "forecast"
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, endpoint) {
		return tooManyRequests(c)
	}

	cacheKey := xcache.Key(endpoint, req.Symbol)
	var cached models.ForecastResult
	if h.cacheGet(c, cacheKey, &cached) {
		return xhttp.SuccessResponse(c, cached)
	}

	res, err := h.forecast.Predict(c.Request().Context(), req.Symbol)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("forecast usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}

	h.cacheSet(c, cacheKey, res, h.forecastTTL)
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) DetectAnomalies(c echo.Context) error {
	const endpoint = "detect"
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.DetectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, endpoint) {
		return tooManyRequests(c)
	}

	obs := models.Observation{Close: req.Close, Volume: req.Volume}
	events, err := h.anomalies.Detect(c.Request().Context(), req.Symbol, obs)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("anomaly detect usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	if events == nil {
		events = []models.AnomalyEvent{}
	}
	return xhttp.SuccessResponse(c, events)
}

func (h *MarketEchoHandler) ValidateDetector(c echo.Context) error {
	const endpoint = "validate"
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ValidateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, endpoint) {
		return tooManyRequests(c)
	}

	cacheKey := xcache.Key(endpoint, req.Symbol, req.Seed)
	var cached models.ValidationReport
	if h.cacheGet(c, cacheKey, &cached) {
		return xhttp.SuccessResponse(c, cached)
	}

	report, err := h.anomalies.Validate(c.Request().Context(), req.Symbol, req.Seed)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("validate usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}

	h.cacheSet(c, cacheKey, report, h.validateTTL)
	return xhttp.SuccessResponse(c, report)
}

func (h *MarketEchoHandler) Recommend(c echo.Context) error {
	const endpoint = "recommend"
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.RecommendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, endpoint) {
		return tooManyRequests(c)
	}

	rec, err := h.recommend.Recommend(c.Request().Context(), req.Symbol, models.ParseRiskProfile(req.RiskProfile))
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("recommend usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *MarketEchoHandler) Health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if h.store != nil {
		if err := h.store.Health(c.Request().Context()); err != nil {
			h.logger.Warn("health check storage error", xlogger.Error(err))
			status["status"] = "degraded"
			status["storage"] = err.Error()
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
		}
		status["storage"] = "ok"
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *MarketEchoHandler) allow(c echo.Context, endpoint string) bool {
	if h.rl.Allow(c.RealIP()+":"+endpoint, h.rlCapacity, h.rlRefill) {
		return true
	}
	metrics.APIRateLimited.WithLabelValues(endpoint).Inc()
	h.logger.Warn("rate limited", xlogger.String("endpoint", endpoint), xlogger.String("remote", c.RealIP()))
	return false
}

func (h *MarketEchoHandler) cacheGet(c echo.Context, key string, dest interface{}) bool {
	if h.cache == nil {
		return false
	}
	err := h.cache.Get(c.Request().Context(), key, dest)
	if err == nil {
		h.logger.Debug("cache hit", xlogger.String("key", key))
		return true
	}
	if !errors.Is(err, xcache.ErrCacheMiss) {
		h.logger.Warn("cache get error", xlogger.String("key", key), xlogger.Error(err))
	}
	return false
}

func (h *MarketEchoHandler) cacheSet(c echo.Context, key string, value interface{}, ttl time.Duration) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(c.Request().Context(), key, value, ttl); err != nil {
		h.logger.Warn("cache set error", xlogger.String("key", key), xlogger.Error(err))
	}
}

func tooManyRequests(c echo.Context) error {
	return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
}

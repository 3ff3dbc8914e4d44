package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	models "TuniCast/internal/domain/models"
	"TuniCast/internal/services/anomaly"
	"TuniCast/internal/services/decision"
	"TuniCast/internal/services/symbols"
	"TuniCast/internal/usecase"
	xcache "TuniCast/pkg/cache"
	"TuniCast/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

const biatCode = "TN0001800457"

type stubStore struct {
	bars     map[string][]models.Bar
	getCalls int
}

func (s *stubStore) GetHistory(_ context.Context, code string) ([]models.Bar, error) {
	s.getCalls++
	return s.bars[code], nil
}

func (s *stubStore) GetLatestNBars(_ context.Context, code string, n int) ([]models.Bar, error) {
	bars := s.bars[code]
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	return bars, nil
}

func (s *stubStore) ListInstruments(_ context.Context) ([]string, error) {
	codes := make([]string, 0, len(s.bars))
	for code := range s.bars {
		codes = append(codes, code)
	}
	return codes, nil
}

func (s *stubStore) InsertBars(_ context.Context, _ []models.Bar) error { return nil }

func (s *stubStore) Health(_ context.Context) error { return nil }

type stubSink struct{}

func (stubSink) Publish(_ context.Context, _ []models.AnomalyEvent) error { return nil }
func (stubSink) Close() error                                             { return nil }

type stubSentiment struct{}

func (stubSentiment) Latest(_ context.Context, _ string) (float64, bool, error) {
	return 0, false, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordForecast(string)               {}
func (nopMetrics) RecordAnomaly(string, string)        {}
func (nopMetrics) RecordRecommendation(string, string) {}
func (nopMetrics) RecordError(string)                  {}
func (nopMetrics) RecordLatency(string, float64)       {}

func calmBars(code string, n int) []models.Bar {
	bars := make([]models.Bar, 0, n)
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 50.0
	for len(bars) < n {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			price *= 1.001
			bars = append(bars, models.Bar{
				Code:    code,
				Session: day,
				Open:    price * 0.999,
				High:    price * 1.004,
				Low:     price * 0.996,
				Close:   price,
				Volume:  1000 + float64(len(bars)%7)*50,
				Value:   price * 1000,
			})
		}
		day = day.AddDate(0, 0, 1)
	}
	return bars
}

func testHandler(t *testing.T, store *stubStore) *MarketEchoHandler {
	t.Helper()

	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	resolver := symbols.NewResolver(nil)
	met := nopMetrics{}

	forecastUC := usecase.NewForecastUseCase(store, resolver, met, log, "/nonexistent/artifact.json")
	anomalyUC := usecase.NewAnomalyUseCase(store, stubSink{}, resolver, anomaly.NewDetector(), met, log)
	recommendUC := usecase.NewRecommendUseCase(forecastUC, anomalyUC, stubSentiment{}, decision.NewEngine(), resolver, met, log)

	return NewMarketEchoHandler(log, forecastUC, anomalyUC, recommendUC, store)
}

func doRequest(h *MarketEchoHandler, method, target string, body string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bodyStatus(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	var envelope struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Status
}

func TestForecastMissingSymbol(t *testing.T) {
	h := testHandler(t, &stubStore{bars: map[string][]models.Bar{}})

	rec := doRequest(h, http.MethodGet, "/api/v1/forecast", "")
	require.Equal(t, http.StatusBadRequest, bodyStatus(t, rec))
}

func TestUnknownSymbolFallsThroughToHistory(t *testing.T) {
	// An unmapped ticker is not a client error: it resolves to itself,
	// finds no stored sessions and the call fails on history instead.
	h := testHandler(t, &stubStore{bars: map[string][]models.Bar{}})

	rec := doRequest(h, http.MethodGet, "/api/v1/anomalies/validate?symbol=NOPE", "")
	require.Equal(t, http.StatusUnprocessableEntity, bodyStatus(t, rec))
}

func TestForecastArtifactsUnavailable(t *testing.T) {
	store := &stubStore{bars: map[string][]models.Bar{biatCode: calmBars(biatCode, 300)}}
	h := testHandler(t, store)

	rec := doRequest(h, http.MethodGet, "/api/v1/forecast?symbol=BIAT", "")
	require.Equal(t, http.StatusServiceUnavailable, bodyStatus(t, rec))
}

func TestDetectAnomaliesQuietObservation(t *testing.T) {
	store := &stubStore{bars: map[string][]models.Bar{biatCode: calmBars(biatCode, 60)}}
	h := testHandler(t, store)

	last := store.bars[biatCode][len(store.bars[biatCode])-1]
	body := fmt.Sprintf(`{"symbol":"BIAT","close":%f,"volume":%f}`, last.Close, last.Volume)
	rec := doRequest(h, http.MethodPost, "/api/v1/anomalies/detect", body)
	require.Equal(t, http.StatusOK, bodyStatus(t, rec))

	var envelope struct {
		Data []models.AnomalyEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Empty(t, envelope.Data)
}

func TestDetectAnomaliesVolumeSpike(t *testing.T) {
	store := &stubStore{bars: map[string][]models.Bar{biatCode: calmBars(biatCode, 60)}}
	h := testHandler(t, store)

	last := store.bars[biatCode][len(store.bars[biatCode])-1]
	body := fmt.Sprintf(`{"symbol":"BIAT","close":%f,"volume":%f}`, last.Close, last.Volume*50)
	rec := doRequest(h, http.MethodPost, "/api/v1/anomalies/detect", body)
	require.Equal(t, http.StatusOK, bodyStatus(t, rec))

	var envelope struct {
		Data []models.AnomalyEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	require.Equal(t, models.AnomalyVolumeSpike, envelope.Data[0].Type)
}

func TestValidateTooFewSessions(t *testing.T) {
	store := &stubStore{bars: map[string][]models.Bar{biatCode: calmBars(biatCode, 40)}}
	h := testHandler(t, store)

	rec := doRequest(h, http.MethodGet, "/api/v1/anomalies/validate?symbol=BIAT&seed=7", "")
	require.Equal(t, http.StatusUnprocessableEntity, bodyStatus(t, rec))
}

func TestValidateReportAndCache(t *testing.T) {
	store := &stubStore{bars: map[string][]models.Bar{biatCode: calmBars(biatCode, 200)}}
	h := testHandler(t, store)
	h.SetCache(xcache.NewMemoryCache(100), time.Minute, time.Minute)

	rec := doRequest(h, http.MethodGet, "/api/v1/anomalies/validate?symbol=BIAT&seed=7", "")
	require.Equal(t, http.StatusOK, bodyStatus(t, rec))

	var envelope struct {
		Data models.ValidationReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "BIAT", envelope.Data.Symbol)
	require.Positive(t, envelope.Data.Injected)

	calls := store.getCalls
	rec = doRequest(h, http.MethodGet, "/api/v1/anomalies/validate?symbol=BIAT&seed=7", "")
	require.Equal(t, http.StatusOK, bodyStatus(t, rec))
	require.Equal(t, calls, store.getCalls, "second call should be served from cache")
}

func TestRecommendDegradesToHold(t *testing.T) {
	// No artifact and no sentiment: the recommendation degrades to a neutral
	// HOLD rather than failing the request.
	store := &stubStore{bars: map[string][]models.Bar{biatCode: calmBars(biatCode, 60)}}
	h := testHandler(t, store)

	rec := doRequest(h, http.MethodGet, "/api/v1/recommend?symbol=BIAT&risk_profile=conservative", "")
	require.Equal(t, http.StatusOK, bodyStatus(t, rec))

	var envelope struct {
		Data models.Recommendation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, models.ActionHold, envelope.Data.Action)
	require.Equal(t, "BIAT", envelope.Data.Symbol)
}

func TestRecommendInvalidProfile(t *testing.T) {
	h := testHandler(t, &stubStore{bars: map[string][]models.Bar{}})

	rec := doRequest(h, http.MethodGet, "/api/v1/recommend?symbol=BIAT&risk_profile=yolo", "")
	require.Equal(t, http.StatusBadRequest, bodyStatus(t, rec))
}

func TestRateLimitExhaustion(t *testing.T) {
	h := testHandler(t, &stubStore{bars: map[string][]models.Bar{}})
	h.SetRateLimit(2, 0.001)

	e := echo.New()
	h.RegisterRoutes(e)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast?symbol=NOPE", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		var envelope struct {
			Status int `json:"status"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		statuses = append(statuses, envelope.Status)
	}
	require.Equal(t, http.StatusTooManyRequests, statuses[2])
}

func TestHealthz(t *testing.T) {
	h := testHandler(t, &stubStore{bars: map[string][]models.Bar{}})

	rec := doRequest(h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, bodyStatus(t, rec))
}

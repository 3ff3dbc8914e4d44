package usecase

import (
	"context"
	"testing"

	"TuniCast/internal/domain/models"
	"TuniCast/pkg/logger"
)

type fakeStore struct {
	bars map[string][]models.Bar
	err  error
}

func (f *fakeStore) GetHistory(ctx context.Context, code string) ([]models.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bars[code], nil
}

func (f *fakeStore) GetLatestNBars(ctx context.Context, code string, n int) ([]models.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	bars := f.bars[code]
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	return bars, nil
}

func (f *fakeStore) ListInstruments(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var codes []string
	for code := range f.bars {
		codes = append(codes, code)
	}
	return codes, nil
}

func (f *fakeStore) InsertBars(ctx context.Context, bars []models.Bar) error {
	if f.err != nil {
		return f.err
	}
	if f.bars == nil {
		f.bars = map[string][]models.Bar{}
	}
	for _, b := range bars {
		f.bars[b.Code] = append(f.bars[b.Code], b)
	}
	return nil
}

func (f *fakeStore) Health(ctx context.Context) error { return f.err }

type fakeSink struct {
	published []models.AnomalyEvent
	err       error
}

func (f *fakeSink) Publish(ctx context.Context, events []models.AnomalyEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, events...)
	return nil
}

func (f *fakeSink) Close() error { return nil }

type fakeSentiment struct {
	score float64
	ok    bool
	err   error
}

func (f *fakeSentiment) Latest(ctx context.Context, symbol string) (float64, bool, error) {
	return f.score, f.ok, f.err
}

type fakeMetrics struct {
	forecasts       int
	anomalies       int
	recommendations map[string]int
	errors          map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{recommendations: map[string]int{}, errors: map[string]int{}}
}

func (f *fakeMetrics) RecordForecast(symbol string)       { f.forecasts++ }
func (f *fakeMetrics) RecordAnomaly(symbol, kind string)  { f.anomalies++ }
func (f *fakeMetrics) RecordRecommendation(symbol, action string) {
	f.recommendations[action]++
}
func (f *fakeMetrics) RecordError(kind string)            { f.errors[kind]++ }
func (f *fakeMetrics) RecordLatency(op string, s float64) {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

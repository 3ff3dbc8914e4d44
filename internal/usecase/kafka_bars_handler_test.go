package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKafkaBarsHandlerStoresBar(t *testing.T) {
	store := &fakeStore{}
	metrics := newFakeMetrics()
	h := NewKafkaBarsHandler("daily-bars", store, metrics)
	require.Equal(t, "daily-bars", h.Topic())

	msg := []byte(`{"code":"TN0001800457","seance":"2024-03-15","open":41.2,"high":41.9,"low":41.0,"close":41.5,"volume":12000,"value":498000}`)
	require.NoError(t, h.Handle(context.Background(), msg))

	bars := store.bars["TN0001800457"]
	require.Len(t, bars, 1)
	require.Equal(t, 41.5, bars[0].Close)
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), bars[0].Session)
}

func TestKafkaBarsHandlerRejectsMalformed(t *testing.T) {
	store := &fakeStore{}
	metrics := newFakeMetrics()
	h := NewKafkaBarsHandler("daily-bars", store, metrics)

	require.Error(t, h.Handle(context.Background(), []byte(`not json`)))
	require.Error(t, h.Handle(context.Background(), []byte(`{"code":"","seance":"2024-03-15","close":41.5}`)))
	require.Error(t, h.Handle(context.Background(), []byte(`{"code":"X","seance":"2024-03-15","close":0}`)))
	require.Error(t, h.Handle(context.Background(), []byte(`{"code":"X","seance":"15/03/2024","close":41.5}`)))
	require.Empty(t, store.bars)
	require.Equal(t, 1, metrics.errors["consumer_unmarshal"])
	require.Equal(t, 2, metrics.errors["consumer_invalid_bar"])
	require.Equal(t, 1, metrics.errors["consumer_invalid_seance"])
}

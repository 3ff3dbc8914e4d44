package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TuniCast/internal/domain/models"
	domrepo "TuniCast/internal/domain/repository"
	pkgkafka "TuniCast/pkg/kafka"
	"TuniCast/pkg/util"
)

// KafkaBarsHandler consumes end-of-day bar messages and writes them to the
// history store.
type KafkaBarsHandler struct {
	topic   string
	store   domrepo.HistoryStore
	metrics domrepo.Metrics
}

func NewKafkaBarsHandler(topic string, store domrepo.HistoryStore, metrics domrepo.Metrics) *KafkaBarsHandler {
	return &KafkaBarsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

// incoming message schema: {code, seance, open, high, low, close, volume, value}
func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Code   string  `json:"code"`
		Seance string  `json:"seance"`
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
		Value  float64 `json:"value"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.Code == "" || m.Close <= 0 {
		h.metrics.RecordError("consumer_invalid_bar")
		return fmt.Errorf("invalid bar message: code %q close %v", m.Code, m.Close)
	}
	session, err := util.ParseSessionDate(m.Seance)
	if err != nil {
		h.metrics.RecordError("consumer_invalid_seance")
		return fmt.Errorf("invalid seance %q: %w", m.Seance, err)
	}

	start := time.Now()
	err = h.store.InsertBars(ctx, []models.Bar{{
		Code:    m.Code,
		Session: session.UTC(),
		Open:    m.Open,
		High:    m.High,
		Low:     m.Low,
		Close:   m.Close,
		Volume:  m.Volume,
		Value:   m.Value,
	}})
	h.metrics.RecordLatency("bar_insert", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)

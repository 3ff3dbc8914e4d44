package repository

import (
	"context"

	"TuniCast/internal/domain/models"
	"TuniCast/internal/domain/repository"
	pkgkafka "TuniCast/pkg/kafka"
)

// KafkaAnomalySink publishes accepted anomaly events to a Kafka topic,
// keyed by instrument code so one instrument's events stay ordered.
type KafkaAnomalySink struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaAnomalySink(producer *pkgkafka.Producer, topic string) repository.AnomalySink {
	return &KafkaAnomalySink{producer: producer, topic: topic}
}

func (s *KafkaAnomalySink) Publish(ctx context.Context, events []models.AnomalyEvent) error {
	if len(events) == 0 {
		return nil
	}
	messages := make([]pkgkafka.Message, 0, len(events))
	for _, ev := range events {
		messages = append(messages, pkgkafka.Message{
			Key:   []byte(ev.Code),
			Value: ev,
		})
	}
	return s.producer.PublishBatch(ctx, s.topic, messages)
}

func (s *KafkaAnomalySink) Close() error {
	return s.producer.Close()
}

package repository

import (
	"context"

	"ChiliPulse/internal/domain/models"
	domrepo "ChiliPulse/internal/domain/repository"
	"ChiliPulse/pkg/kafka"
)

// KafkaEventPublisher writes evaluation events to a topic keyed by city, so a
// consumer sees each city's evaluations in order.
type KafkaEventPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *kafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishEvaluation(ctx context.Context, ev models.EvaluationEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.City), ev)
}

// Close is a no-op: the producer is shared with the log collector and closed by the app.
func (p *KafkaEventPublisher) Close() error { return nil }

// NoopEventPublisher drops every event. Used when events are disabled.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishEvaluation(context.Context, models.EvaluationEvent) error {
	return nil
}

func (NoopEventPublisher) Close() error { return nil }

var (
	_ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
	_ domrepo.EventPublisher = NoopEventPublisher{}
)

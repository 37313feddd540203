package repository

import (
	"context"

	"ChiliPulse/internal/domain/models"
)

// EventPublisher ships evaluation events to downstream consumers.
type EventPublisher interface {
	PublishEvaluation(ctx context.Context, ev models.EvaluationEvent) error
	Close() error
}

type Metrics interface {
	RecordEvaluation(city, verdict string, points int)
	RecordFailure(kind string)
	RecordWarning(code string)
	RecordStaleDiscard()
	RecordUpstream(endpoint string, ok bool, seconds float64)
}

// NoopMetrics discards all measurements.
type NoopMetrics struct{}

func (NoopMetrics) RecordEvaluation(string, string, int) {}
func (NoopMetrics) RecordFailure(string) {}
func (NoopMetrics) RecordWarning(string) {}
func (NoopMetrics) RecordStaleDiscard() {}
func (NoopMetrics) RecordUpstream(string, bool, float64) {}

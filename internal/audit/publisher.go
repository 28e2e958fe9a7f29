// Package audit publishes security-relevant auth events. Publishing is
// best effort: a failed publish is logged and never fails the request
// that produced the event.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"rewards-admin/internal/client"
	"rewards-admin/internal/models"
	"rewards-admin/internal/util"
)

// Publisher receives audit events from the services.
type Publisher interface {
	Publish(ctx context.Context, event models.AuditEvent)
}

// KafkaPublisher writes events to the configured audit topic, keyed by
// event type so consumers can partition on it.
type KafkaPublisher struct {
	producer *client.KafkaProducer
}

func NewKafkaPublisher(producer *client.KafkaProducer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event models.AuditEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		util.Error("Failed to marshal audit event", zap.String("event_type", event.EventType), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.producer.ProduceMessage(ctx, []byte(event.EventType), payload); err != nil {
		util.Error("Failed to publish audit event", zap.String("event_type", event.EventType), zap.Error(err))
	}
}

// LogPublisher is the fallback when Kafka is not configured; events land
// in the service log instead of the stream.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(_ context.Context, event models.AuditEvent) {
	util.Info("Audit event",
		zap.String("event_type", event.EventType),
		zap.String("admin_id", event.AdminID),
		zap.String("email", event.Email),
		zap.String("details", event.Details),
	)
}

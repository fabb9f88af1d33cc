package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"cloakswap/internal/platform/kafka/producer"
)

// Sink receives fan-out events. Delivery is best effort.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Producer is the subset of the Kafka producer the sink needs.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaSink publishes events as JSON records keyed by identity.
type KafkaSink struct {
	producer Producer
	topic    string
}

func NewKafkaSink(p Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: p, topic: topic}
}

func (s *KafkaSink) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	return s.producer.Produce(ctx, &producer.Message{
		Topic: s.topic,
		Key:   []byte(event.Identity),
		Value: value,
		Headers: map[string]string{
			"event_type": "hook_check",
			"reason":     event.Reason,
		},
	})
}

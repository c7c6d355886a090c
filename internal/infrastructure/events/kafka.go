package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"fulfillment-backend/pkg/logger"
)

type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 5 * time.Second,
	}
	logger.Info("Kafka publisher initialized", map[string]interface{}{
		"topic":   topic,
		"brokers": brokers,
	})
	return &KafkaPublisher{writer: w, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", evt.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(evt.Key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(evt.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", evt.Type, p.topic, err)
	}
	logger.Debug(fmt.Sprintf("event %s published key=%s topic=%s", evt.Type, evt.Key, p.topic))
	return nil
}

func (p *KafkaPublisher) Close() error {
	logger.Info("Kafka publisher closing", map[string]interface{}{"topic": p.topic})
	return p.writer.Close()
}

var _ Publisher = (*KafkaPublisher)(nil)

package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	portssvc "github.com/savecircle/savecircle-backend/internal/core/ports/services"
)

// Producer publishes transaction lifecycle events to a Kafka topic. Messages
// are keyed by wallet ID so one wallet's events stay ordered within a partition.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a Kafka producer for the given brokers and topic.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

var _ portssvc.TransactionPublisher = (*Producer)(nil)

// PublishTransaction writes one event to the topic.
func (p *Producer) PublishTransaction(ctx context.Context, event portssvc.TransactionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.WalletID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish transaction event: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

package events

import (
	"context"
	"encoding/json"
	"time"

	"mini-shop/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const producerName = "order-api"

// KafkaPublisher publishes order lifecycle events to a Kafka topic.
// Publishing is asynchronous and best-effort: write errors are logged, and
// a failed publish never affects the order it describes.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaPublisher creates an async Kafka publisher for order events.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) *KafkaPublisher {
	logger = logger.With().Str("component", "event-publisher").Logger()

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					logger.Error().Err(err).Int("count", len(messages)).Msg("failed to publish order events")
				}
			},
		},
		logger: logger,
	}
}

// OrderPlaced publishes an OrderPlaced event for a committed order.
func (p *KafkaPublisher) OrderPlaced(ctx context.Context, order *model.Order, items []model.OrderItem) {
	lines := make([]ItemLine, len(items))
	for i, item := range items {
		lines[i] = ItemLine{
			SkuID:      item.SkuID,
			Quantity:   item.Quantity,
			PriceCents: item.PriceCents,
		}
	}

	p.publish(ctx, order.ID, EventOrderPlaced, OrderPlacedPayload{
		OrderID:    order.ID.String(),
		UserID:     order.UserID,
		TotalCents: order.TotalCents,
		Items:      lines,
	})
}

// OrderCancelled publishes an OrderCancelled event.
func (p *KafkaPublisher) OrderCancelled(ctx context.Context, orderID uuid.UUID) {
	p.publish(ctx, orderID, EventOrderCancelled, OrderCancelledPayload{
		OrderID: orderID.String(),
	})
}

func (p *KafkaPublisher) publish(ctx context.Context, orderID uuid.UUID, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		return
	}

	envelope := Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now(),
		Producer:   producerName,
		Payload:    raw,
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event envelope")
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   PartitionKey(orderID),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("event_type", eventType).
			Str("order_id", orderID.String()).
			Msg("failed to enqueue event")
	}
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

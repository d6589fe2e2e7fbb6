package events

import (
	"encoding/json"
	"time"

	"mini-shop/internal/model"

	"github.com/google/uuid"
)

// Event types carried on the order events topic.
const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderCancelled = "OrderCancelled"
)

// Envelope wraps every published event. Messages for one order share a
// partition key so consumers see that order's events in order.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Producer   string          `json:"producer"`
	Payload    json.RawMessage `json:"payload"`
}

// OrderPlacedPayload carries the committed order and its line items.
type OrderPlacedPayload struct {
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	TotalCents model.Cents `json:"total_cents"`
	Items      []ItemLine  `json:"items"`
}

// ItemLine is one order line in an event payload.
type ItemLine struct {
	SkuID      string      `json:"sku_id"`
	Quantity   int         `json:"quantity"`
	PriceCents model.Cents `json:"price_cents"`
}

// OrderCancelledPayload identifies an order whose ledger effects were
// reversed by the deferred cancellation task.
type OrderCancelledPayload struct {
	OrderID string `json:"order_id"`
}

// PartitionKey keys all of one order's events to the same partition.
func PartitionKey(orderID uuid.UUID) []byte {
	return []byte(orderID.String())
}

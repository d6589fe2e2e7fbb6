package service

import (
	"context"
	"time"

	"mini-shop/internal/model"

	"github.com/google/uuid"
)

// OrderService defines operations for the order placement workflow and the
// status transitions that follow it. The acting user is always passed
// explicitly; operations on another user's order report not-found.
type OrderService interface {
	// Place validates, prices and atomically creates an order against the
	// stock and coupon ledgers, then schedules deferred cancellation.
	Place(ctx context.Context, userID string, req *model.PlaceOrderRequest) (*model.OrderResponse, error)

	// GetByID retrieves an order by its ID with all items.
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*model.OrderResponse, error)

	// MarkPaid records payment completion. It fails once the order has been
	// cancelled, so a payment can never land on a closed order.
	MarkPaid(ctx context.Context, orderID uuid.UUID) error

	// MarkReceived confirms receipt of a delivered order.
	MarkReceived(ctx context.Context, userID string, orderID uuid.UUID) (*model.Order, error)

	// ApplyRefund requests a refund on a paid order and stores the reason.
	ApplyRefund(ctx context.Context, userID string, orderID uuid.UUID, reason string) (*model.Order, error)

	// SubmitReview sets per-item ratings and marks the order reviewed,
	// atomically across all items.
	SubmitReview(ctx context.Context, userID string, orderID uuid.UUID, reviews []model.ItemReview) error

	// CancelUnpaid is the deferred cancellation task body: if the order is
	// still unpaid it is closed and its ledger effects reversed, all in one
	// transaction. Safe to invoke more than once.
	CancelUnpaid(ctx context.Context, orderID uuid.UUID) error
}

// CartService removes purchased SKUs from a user's cart after a successful
// placement. Best-effort: a failure must not undo the order.
type CartService interface {
	RemoveItems(ctx context.Context, userID string, skuIDs []string) error
}

// CancellationScheduler enqueues the deferred cancellation check for an
// order, to fire after ttl. Delivery is at-least-once.
type CancellationScheduler interface {
	Schedule(ctx context.Context, orderID uuid.UUID, ttl time.Duration) error
}

// EventPublisher publishes order lifecycle events. Best-effort.
type EventPublisher interface {
	OrderPlaced(ctx context.Context, order *model.Order, items []model.OrderItem)
	OrderCancelled(ctx context.Context, orderID uuid.UUID)
}

package repository

import (
	"context"
	"time"

	"mini-shop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepository defines the interface for order data access operations.
// Status transitions are single conditional statements: they apply only
// while the guard still holds and report whether a row changed, so a
// concurrent transition can never be silently overwritten.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order shell within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// SetTotal persists the final order total and optional coupon
	// association within the provided transaction.
	SetTotal(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, total model.Cents, couponID *uuid.UUID) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// MarkPaid records payment completion only while the order is unpaid
	// and not closed. Returns false if the guard no longer holds.
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error)

	// MarkReceived transitions ship status delivered -> received.
	MarkReceived(ctx context.Context, id uuid.UUID) (bool, error)

	// ApplyRefund transitions refund status pending -> applied and stores
	// the reason, only while the order is paid.
	ApplyRefund(ctx context.Context, id uuid.UUID, reason string) (bool, error)

	// CloseIfUnpaid marks the order closed within the provided transaction,
	// only while it is still unpaid and not already closed. Returns false
	// (no mutation) otherwise.
	CloseIfUnpaid(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)

	// SetItemReview writes a line item's review fields within the provided
	// transaction.
	SetItemReview(ctx context.Context, tx pgx.Tx, orderID, itemID uuid.UUID, rating int, review string, reviewedAt time.Time) (bool, error)

	// MarkReviewed flags the order as reviewed within the provided
	// transaction.
	MarkReviewed(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error
}

// StockRepository is the stock ledger: it owns per-SKU available-quantity
// counters and exposes atomic conditional mutation.
type StockRepository interface {
	// GetSku retrieves a SKU snapshot (price, product reference, title)
	// within the provided transaction. Returns nil if the SKU does not exist.
	GetSku(ctx context.Context, tx pgx.Tx, skuID string) (*model.Sku, error)

	// ConditionalDecrement reduces available stock by quantity only if
	// enough is available at the moment of the atomic check-and-update.
	// Returns false (no mutation) otherwise.
	ConditionalDecrement(ctx context.Context, tx pgx.Tx, skuID string, quantity int) (bool, error)

	// Increment restocks unconditionally, used on order cancellation.
	Increment(ctx context.Context, tx pgx.Tx, skuID string, quantity int) error
}

// CouponRepository is the coupon ledger: it owns the per-coupon usage
// counter and exposes atomic conditional mutation.
type CouponRepository interface {
	// GetByCode retrieves a coupon by its human code string. Returns nil if
	// no such code exists.
	GetByCode(ctx context.Context, code string) (*model.CouponCode, error)

	// ConditionalIncrement increments the used counter only if used < total
	// at the time of the atomic update. Returns false (no mutation) otherwise.
	ConditionalIncrement(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)

	// Decrement releases one redemption unconditionally, used on cancellation.
	Decrement(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// Upsert inserts or updates a coupon definition by code (bulk import).
	Upsert(ctx context.Context, coupon *model.CouponCode) error
}

// AddressRepository reads user shipping addresses. The address lifecycle is
// owned elsewhere; placement only snapshots and touches last_used_at.
type AddressRepository interface {
	// GetByID retrieves an address. Returns nil if it does not exist.
	GetByID(ctx context.Context, id string) (*model.Address, error)

	// TouchLastUsed records that the address was just used, within the
	// provided transaction.
	TouchLastUsed(ctx context.Context, tx pgx.Tx, id string) error
}

package repository

import (
	"context"
	"fmt"
	"time"

	"mini-shop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order shell within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, user_id, address, remark, total_cents, ship_status, refund_status, closed, reviewed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.UserID, order.Address, order.Remark, order.TotalCents,
		order.ShipStatus, order.RefundStatus, order.Closed, order.Reviewed,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, sku_id, product_id, title, price_cents, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.SkuID, item.ProductID, item.Title, item.PriceCents, item.Quantity)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("sku_id", items[i].SkuID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created")

	return nil
}

// SetTotal persists the final order total and optional coupon association
// within the provided transaction.
func (r *orderRepository) SetTotal(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, total model.Cents, couponID *uuid.UUID) error {
	query := `
		UPDATE orders
		SET total_cents = $2, coupon_id = $3, updated_at = NOW()
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query, orderID, total, couponID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to set order total")
		return fmt.Errorf("failed to set order total: %w", err)
	}
	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	orderQuery := `
		SELECT id, user_id, address, remark, total_cents, paid_at, ship_status,
		       refund_status, refund_reason, closed, reviewed, coupon_id,
		       created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order model.Order
	err := r.pool.QueryRow(ctx, orderQuery, id).Scan(
		&order.ID,
		&order.UserID,
		&order.Address,
		&order.Remark,
		&order.TotalCents,
		&order.PaidAt,
		&order.ShipStatus,
		&order.RefundStatus,
		&order.RefundReason,
		&order.Closed,
		&order.Reviewed,
		&order.CouponID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemsQuery := `
		SELECT id, order_id, sku_id, product_id, title, price_cents, quantity,
		       rating, review, reviewed_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Msg("failed to query order items")
		return nil, nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.SkuID, &item.ProductID,
			&item.Title, &item.PriceCents, &item.Quantity,
			&item.Rating, &item.Review, &item.ReviewedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return &order, items, nil
}

// MarkPaid records payment completion only while the order is unpaid and
// not closed. The guard is part of the statement, so a late payment can
// never land on an order the cancellation task already closed.
func (r *orderRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET paid_at = $2, updated_at = NOW()
		WHERE id = $1 AND paid_at IS NULL AND NOT closed
	`

	tag, err := r.pool.Exec(ctx, query, id, paidAt)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order paid")
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkReceived transitions ship status delivered -> received.
func (r *orderRepository) MarkReceived(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE orders
		SET ship_status = $2, updated_at = NOW()
		WHERE id = $1 AND ship_status = $3
	`

	tag, err := r.pool.Exec(ctx, query, id, model.ShipStatusReceived, model.ShipStatusDelivered)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order received")
		return false, fmt.Errorf("failed to mark order received: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ApplyRefund transitions refund status pending -> applied and stores the
// reason, only while the order is paid.
func (r *orderRepository) ApplyRefund(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	query := `
		UPDATE orders
		SET refund_status = $2, refund_reason = $3, updated_at = NOW()
		WHERE id = $1 AND paid_at IS NOT NULL AND refund_status = $4
	`

	tag, err := r.pool.Exec(ctx, query, id, model.RefundStatusApplied, reason, model.RefundStatusPending)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to apply refund")
		return false, fmt.Errorf("failed to apply refund: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CloseIfUnpaid marks the order closed within the provided transaction,
// only while it is still unpaid and not already closed.
func (r *orderRepository) CloseIfUnpaid(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	query := `
		UPDATE orders
		SET closed = TRUE, updated_at = NOW()
		WHERE id = $1 AND paid_at IS NULL AND NOT closed
	`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to close order")
		return false, fmt.Errorf("failed to close order: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetItemReview writes a line item's review fields within the provided
// transaction. The item must belong to the order and not be reviewed yet.
func (r *orderRepository) SetItemReview(ctx context.Context, tx pgx.Tx, orderID, itemID uuid.UUID, rating int, review string, reviewedAt time.Time) (bool, error) {
	query := `
		UPDATE order_items
		SET rating = $3, review = $4, reviewed_at = $5
		WHERE id = $2 AND order_id = $1 AND reviewed_at IS NULL
	`

	tag, err := tx.Exec(ctx, query, orderID, itemID, rating, review, reviewedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Str("item_id", itemID.String()).
			Msg("failed to set item review")
		return false, fmt.Errorf("failed to set item review: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkReviewed flags the order as reviewed within the provided transaction.
func (r *orderRepository) MarkReviewed(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	query := `
		UPDATE orders
		SET reviewed = TRUE, updated_at = NOW()
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to mark order reviewed")
		return fmt.Errorf("failed to mark order reviewed: %w", err)
	}
	return nil
}

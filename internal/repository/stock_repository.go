package repository

import (
	"context"
	"fmt"

	"mini-shop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// stockRepository implements the StockRepository interface using PostgreSQL.
type stockRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewStockRepository creates a new PostgreSQL-backed stock ledger.
func NewStockRepository(pool *pgxpool.Pool, logger zerolog.Logger) StockRepository {
	return &stockRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "stock").Logger(),
	}
}

// GetSku retrieves a SKU snapshot within the provided transaction.
func (r *stockRepository) GetSku(ctx context.Context, tx pgx.Tx, skuID string) (*model.Sku, error) {
	query := `
		SELECT id, product_id, title, price_cents, stock, created_at
		FROM skus
		WHERE id = $1
	`

	var sku model.Sku
	err := tx.QueryRow(ctx, query, skuID).Scan(
		&sku.ID,
		&sku.ProductID,
		&sku.Title,
		&sku.PriceCents,
		&sku.Stock,
		&sku.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("sku_id", skuID).Msg("sku not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("sku_id", skuID).Msg("failed to query sku")
		return nil, fmt.Errorf("failed to query sku: %w", err)
	}

	return &sku, nil
}

// ConditionalDecrement reduces available stock by quantity only if enough
// is available at the moment of the update. The guard lives in the WHERE
// clause so the check and the write are one atomic statement; two
// concurrent orders contending for the last unit cannot both pass.
func (r *stockRepository) ConditionalDecrement(ctx context.Context, tx pgx.Tx, skuID string, quantity int) (bool, error) {
	query := `
		UPDATE skus
		SET stock = stock - $2
		WHERE id = $1 AND stock >= $2
	`

	tag, err := tx.Exec(ctx, query, skuID, quantity)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("sku_id", skuID).
			Int("quantity", quantity).
			Msg("failed to decrement stock")
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}

	if tag.RowsAffected() != 1 {
		r.logger.Debug().
			Str("sku_id", skuID).
			Int("quantity", quantity).
			Msg("insufficient stock for decrement")
		return false, nil
	}

	return true, nil
}

// Increment restocks unconditionally, used on order cancellation.
func (r *stockRepository) Increment(ctx context.Context, tx pgx.Tx, skuID string, quantity int) error {
	query := `
		UPDATE skus
		SET stock = stock + $2
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query, skuID, quantity)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("sku_id", skuID).
			Int("quantity", quantity).
			Msg("failed to restock sku")
		return fmt.Errorf("failed to restock sku: %w", err)
	}

	return nil
}

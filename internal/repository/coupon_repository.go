package repository

import (
	"context"
	"fmt"

	"mini-shop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon ledger.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// GetByCode retrieves a coupon by its human code string.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.CouponCode, error) {
	query := `
		SELECT id, name, code, type, value, total, used, min_amount_cents,
		       not_before, not_after, enabled, created_at
		FROM coupon_codes
		WHERE code = $1
	`

	var coupon model.CouponCode
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&coupon.ID,
		&coupon.Name,
		&coupon.Code,
		&coupon.Type,
		&coupon.Value,
		&coupon.Total,
		&coupon.Used,
		&coupon.MinAmountCents,
		&coupon.NotBefore,
		&coupon.NotAfter,
		&coupon.Enabled,
		&coupon.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("code", code).Msg("coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &coupon, nil
}

// ConditionalIncrement increments the used counter only if used < total at
// the time of the atomic update. The quota guard is part of the statement,
// so two concurrent redemptions of the last slot cannot both pass.
func (r *couponRepository) ConditionalIncrement(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	query := `
		UPDATE coupon_codes
		SET used = used + 1
		WHERE id = $1 AND used < total
	`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to increment coupon usage")
		return false, fmt.Errorf("failed to increment coupon usage: %w", err)
	}

	if tag.RowsAffected() != 1 {
		r.logger.Debug().Str("coupon_id", id.String()).Msg("coupon quota exhausted")
		return false, nil
	}

	return true, nil
}

// Decrement releases one redemption unconditionally, used on cancellation.
func (r *couponRepository) Decrement(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `
		UPDATE coupon_codes
		SET used = used - 1
		WHERE id = $1 AND used > 0
	`

	_, err := tx.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to release coupon usage")
		return fmt.Errorf("failed to release coupon usage: %w", err)
	}

	return nil
}

// Upsert inserts or updates a coupon definition by code. The live used
// counter is never overwritten by an import.
func (r *couponRepository) Upsert(ctx context.Context, coupon *model.CouponCode) error {
	query := `
		INSERT INTO coupon_codes (id, name, code, type, value, total, used, min_amount_cents,
		                          not_before, not_after, enabled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name,
		    type = EXCLUDED.type,
		    value = EXCLUDED.value,
		    total = EXCLUDED.total,
		    min_amount_cents = EXCLUDED.min_amount_cents,
		    not_before = EXCLUDED.not_before,
		    not_after = EXCLUDED.not_after,
		    enabled = EXCLUDED.enabled
	`

	_, err := r.pool.Exec(ctx, query,
		coupon.ID, coupon.Name, coupon.Code, coupon.Type, coupon.Value,
		coupon.Total, coupon.Used, coupon.MinAmountCents,
		coupon.NotBefore, coupon.NotAfter, coupon.Enabled, coupon.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("code", coupon.Code).Msg("failed to upsert coupon")
		return fmt.Errorf("failed to upsert coupon: %w", err)
	}

	return nil
}

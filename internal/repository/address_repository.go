package repository

import (
	"context"
	"fmt"

	"mini-shop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// addressRepository implements the AddressRepository interface using PostgreSQL.
type addressRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(pool *pgxpool.Pool, logger zerolog.Logger) AddressRepository {
	return &addressRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "address").Logger(),
	}
}

// GetByID retrieves an address.
func (r *addressRepository) GetByID(ctx context.Context, id string) (*model.Address, error) {
	query := `
		SELECT id, user_id, full_address, zip, contact_name, contact_phone, last_used_at
		FROM addresses
		WHERE id = $1
	`

	var addr model.Address
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&addr.ID,
		&addr.UserID,
		&addr.FullAddress,
		&addr.Zip,
		&addr.ContactName,
		&addr.ContactPhone,
		&addr.LastUsedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("address_id", id).Msg("address not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("address_id", id).Msg("failed to query address")
		return nil, fmt.Errorf("failed to query address: %w", err)
	}

	return &addr, nil
}

// TouchLastUsed records that the address was just used.
func (r *addressRepository) TouchLastUsed(ctx context.Context, tx pgx.Tx, id string) error {
	query := `
		UPDATE addresses
		SET last_used_at = NOW()
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("address_id", id).Msg("failed to touch address")
		return fmt.Errorf("failed to touch address: %w", err)
	}

	return nil
}

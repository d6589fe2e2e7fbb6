package coupon

import (
	"context"
	"fmt"

	"mini-shop/internal/repository"

	"github.com/rs/zerolog"
)

// Importer bulk-loads coupon definitions from a file into the coupon
// store. Existing codes are updated in place; their live used counters are
// preserved.
type Importer struct {
	loader Loader
	repo   repository.CouponRepository
	logger zerolog.Logger
}

// NewImporter creates a coupon importer.
func NewImporter(loader Loader, repo repository.CouponRepository, logger zerolog.Logger) *Importer {
	return &Importer{
		loader: loader,
		repo:   repo,
		logger: logger.With().Str("component", "coupon-importer").Logger(),
	}
}

// Import loads the file and upserts every definition. It stops at the
// first storage error; a partially applied import is safe to re-run.
func (i *Importer) Import(ctx context.Context, filePath string) (int, error) {
	defs, err := i.loader.Load(ctx, filePath)
	if err != nil {
		return 0, fmt.Errorf("coupon import failed: %w", err)
	}

	for n, def := range defs {
		if err := i.repo.Upsert(ctx, def.Model()); err != nil {
			i.logger.Error().
				Err(err).
				Str("code", def.Code).
				Int("imported", n).
				Msg("coupon import aborted")
			return n, fmt.Errorf("coupon import failed at %s: %w", def.Code, err)
		}
	}

	i.logger.Info().
		Str("file", filePath).
		Int("count", len(defs)).
		Msg("coupon definitions imported")

	return len(defs), nil
}

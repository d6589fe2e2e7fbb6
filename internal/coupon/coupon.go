package coupon

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mini-shop/internal/model"

	"github.com/google/uuid"
)

// Definition is one coupon as it appears in an import file: one JSON
// object per line.
type Definition struct {
	Name           string      `json:"name"`
	Code           string      `json:"code"`
	Type           string      `json:"type"`
	Value          int64       `json:"value"`
	Total          int         `json:"total"`
	MinAmountCents model.Cents `json:"min_amount_cents"`
	NotBefore      *time.Time  `json:"not_before,omitempty"`
	NotAfter       *time.Time  `json:"not_after,omitempty"`
	Enabled        bool        `json:"enabled"`
}

// Loader defines the interface for loading coupon definition files.
type Loader interface {
	// Load reads a gzipped coupon definition file.
	Load(ctx context.Context, filePath string) ([]Definition, error)
}

// ParseDefinition parses and validates one import line.
func ParseDefinition(line []byte) (Definition, error) {
	var def Definition
	if err := json.Unmarshal(line, &def); err != nil {
		return Definition{}, fmt.Errorf("malformed coupon definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// Validate checks the definition's fields.
func (d *Definition) Validate() error {
	if d.Code == "" {
		return fmt.Errorf("coupon definition is missing a code")
	}
	switch model.CouponType(d.Type) {
	case model.CouponTypeFixed:
		if d.Value < 1 {
			return fmt.Errorf("coupon %s: fixed value must be at least one cent", d.Code)
		}
	case model.CouponTypePercent:
		if d.Value < 1 || d.Value > 99 {
			return fmt.Errorf("coupon %s: percent value must be between 1 and 99", d.Code)
		}
	default:
		return fmt.Errorf("coupon %s: unknown type %q", d.Code, d.Type)
	}
	if d.Total < 1 {
		return fmt.Errorf("coupon %s: total quota must be at least 1", d.Code)
	}
	if d.MinAmountCents < 0 {
		return fmt.Errorf("coupon %s: minimum amount cannot be negative", d.Code)
	}
	return nil
}

// Model converts the definition to a CouponCode ready for upsert.
func (d *Definition) Model() *model.CouponCode {
	return &model.CouponCode{
		ID:             uuid.New(),
		Name:           d.Name,
		Code:           d.Code,
		Type:           model.CouponType(d.Type),
		Value:          d.Value,
		Total:          d.Total,
		Used:           0,
		MinAmountCents: d.MinAmountCents,
		NotBefore:      d.NotBefore,
		NotAfter:       d.NotAfter,
		Enabled:        d.Enabled,
		CreatedAt:      time.Now(),
	}
}

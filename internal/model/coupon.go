package model

import (
	"time"

	"github.com/google/uuid"
)

// CouponType selects how a coupon adjusts the order total.
type CouponType string

const (
	CouponTypeFixed   CouponType = "fixed"
	CouponTypePercent CouponType = "percent"
)

// CouponCode is a finite-quota discount instrument. Used never exceeds
// Total; the used counter is mutated only via the coupon ledger's
// conditional operations.
type CouponCode struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	Code           string     `json:"code" db:"code"`
	Type           CouponType `json:"type" db:"type"`
	Value          int64      `json:"value" db:"value"` // cents for fixed, whole percent for percent
	Total          int        `json:"total" db:"total"`
	Used           int        `json:"used" db:"used"`
	MinAmountCents Cents      `json:"minAmountCents" db:"min_amount_cents"`
	NotBefore      *time.Time `json:"notBefore,omitempty" db:"not_before"`
	NotAfter       *time.Time `json:"notAfter,omitempty" db:"not_after"`
	Enabled        bool       `json:"enabled" db:"enabled"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
}

// CheckEligible evaluates the coupon's rules in a fixed order so the
// reported reason is deterministic: enabled, quota, not-before, not-after,
// then minimum amount. The amount rule is skipped when orderAmount is nil
// (the pre-check before the order total is known).
func (c *CouponCode) CheckEligible(now time.Time, orderAmount *Cents) error {
	if !c.Enabled {
		return ErrCouponDisabled
	}
	if c.Used >= c.Total {
		return ErrCouponExhausted
	}
	if c.NotBefore != nil && now.Before(*c.NotBefore) {
		return ErrCouponNotStarted
	}
	if c.NotAfter != nil && now.After(*c.NotAfter) {
		return ErrCouponExpired
	}
	if orderAmount != nil && *orderAmount < c.MinAmountCents {
		return ErrCouponMinAmount
	}
	return nil
}

// AdjustedPrice computes the discounted order total. A fixed coupon never
// drops the total below one minimum currency unit; a percent coupon
// truncates to two fractional digits (integer cent division never rounds
// up).
func (c *CouponCode) AdjustedPrice(amount Cents) Cents {
	if c.Type == CouponTypeFixed {
		adjusted := amount - Cents(c.Value)
		if adjusted < MinOrderAmount {
			return MinOrderAmount
		}
		return adjusted
	}
	return amount * Cents(100-c.Value) / 100
}

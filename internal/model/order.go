package model

import (
	"time"

	"github.com/google/uuid"
)

// ShipStatus tracks the shipping leg of an order's lifecycle.
type ShipStatus string

const (
	ShipStatusPending   ShipStatus = "pending"
	ShipStatusDelivered ShipStatus = "delivered"
	ShipStatusReceived  ShipStatus = "received"
)

// RefundStatus tracks the refund leg of an order's lifecycle.
type RefundStatus string

const (
	RefundStatusPending    RefundStatus = "pending"
	RefundStatusApplied    RefundStatus = "applied"
	RefundStatusProcessing RefundStatus = "processing"
	RefundStatusSuccess    RefundStatus = "success"
	RefundStatusFailed     RefundStatus = "failed"
)

// AddressSnapshot is the shipping address copied onto the order at placement
// time. It is free-form data, not a live reference to the address record.
type AddressSnapshot struct {
	Address      string `json:"address"`
	Zip          string `json:"zip"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
}

// Order represents a customer order. An order is created once, inside the
// placement transaction, and afterwards mutated only through status
// transitions (paid, delivered, received, refund, review, close).
type Order struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	UserID       string          `json:"userId" db:"user_id"`
	Address      AddressSnapshot `json:"address" db:"address"`
	Remark       string          `json:"remark" db:"remark"`
	TotalCents   Cents           `json:"totalCents" db:"total_cents"`
	PaidAt       *time.Time      `json:"paidAt,omitempty" db:"paid_at"`
	ShipStatus   ShipStatus      `json:"shipStatus" db:"ship_status"`
	RefundStatus RefundStatus    `json:"refundStatus" db:"refund_status"`
	RefundReason *string         `json:"refundReason,omitempty" db:"refund_reason"`
	Closed       bool            `json:"closed" db:"closed"`
	Reviewed     bool            `json:"reviewed" db:"reviewed"`
	CouponID     *uuid.UUID      `json:"couponId,omitempty" db:"coupon_id"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// Paid reports whether payment has completed for the order.
func (o *Order) Paid() bool {
	return o.PaidAt != nil
}

// OrderItem represents a line item in an order. Price and titles are
// snapshotted from the SKU at order time, immune to later price changes.
// Immutable after creation except for the review fields, set once.
type OrderItem struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	OrderID    uuid.UUID  `json:"-" db:"order_id"`
	SkuID      string     `json:"skuId" db:"sku_id"`
	ProductID  string     `json:"productId" db:"product_id"`
	Title      string     `json:"title" db:"title"`
	PriceCents Cents      `json:"priceCents" db:"price_cents"`
	Quantity   int        `json:"quantity" db:"quantity"`
	Rating     *int       `json:"rating,omitempty" db:"rating"`
	Review     *string    `json:"review,omitempty" db:"review"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty" db:"reviewed_at"`
}

// PlaceOrderRequest represents the request payload for placing an order.
type PlaceOrderRequest struct {
	AddressID  string           `json:"addressId"`
	Remark     string           `json:"remark,omitempty"`
	CouponCode *string          `json:"couponCode,omitempty"`
	Items      []PlaceOrderItem `json:"items"`
}

// PlaceOrderItem represents a single item in a placement request.
type PlaceOrderItem struct {
	SkuID    string `json:"skuId"`
	Quantity int    `json:"quantity"`
}

// ItemReview carries one line item's review in a SubmitReview call.
type ItemReview struct {
	ItemID uuid.UUID `json:"itemId"`
	Rating int       `json:"rating"`
	Review string    `json:"review"`
}

// OrderResponse represents the response payload for an order.
type OrderResponse struct {
	Order *Order      `json:"order"`
	Items []OrderItem `json:"items"`
}

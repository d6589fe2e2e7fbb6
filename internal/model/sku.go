package model

import "time"

// Sku represents a purchasable product variant with its own price and
// stock count. Stock is mutated only through the stock ledger's conditional
// operations and never drops below zero.
type Sku struct {
	ID         string    `json:"id" db:"id"`
	ProductID  string    `json:"productId" db:"product_id"`
	Title      string    `json:"title" db:"title"`
	PriceCents Cents     `json:"priceCents" db:"price_cents"`
	Stock      int       `json:"stock" db:"stock"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

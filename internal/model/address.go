package model

import "time"

// Address is a user's saved shipping address. The placement workflow reads
// a snapshot of it and touches last_used_at but does not own its lifecycle.
type Address struct {
	ID           string     `json:"id" db:"id"`
	UserID       string     `json:"userId" db:"user_id"`
	FullAddress  string     `json:"fullAddress" db:"full_address"`
	Zip          string     `json:"zip" db:"zip"`
	ContactName  string     `json:"contactName" db:"contact_name"`
	ContactPhone string     `json:"contactPhone" db:"contact_phone"`
	LastUsedAt   *time.Time `json:"lastUsedAt,omitempty" db:"last_used_at"`
}

// Snapshot copies the deliverable fields onto an order.
func (a *Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		Address:      a.FullAddress,
		Zip:          a.Zip,
		ContactName:  a.ContactName,
		ContactPhone: a.ContactPhone,
	}
}

package model

import "fmt"

// Cents is a monetary amount in the smallest currency unit. Persisted
// amounts always carry exactly two fractional digits, so integer cents
// round-trip losslessly through the database and the wire.
type Cents int64

// MinOrderAmount is the floor for any order total once a line item exists.
const MinOrderAmount Cents = 1

// Float returns the amount in whole currency units.
func (c Cents) Float() float64 {
	return float64(c) / 100
}

// String formats the amount with two fractional digits, e.g. "79.99".
func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of the application — it depends on nothing.
package domain

import (
	"fmt"
	"math"
)

// ─── Money ──────────────────────────────────────────────────────────────────
// All monetary values are integer cents. Floats exist only at the HTTP
// boundary, where the front end speaks decimal dollars.

// Cents is a monetary amount in integer cents.
type Cents int64

// CentsFromDollars converts a decimal dollar amount to cents,
// rounding to the nearest cent.
func CentsFromDollars(d float64) Cents {
	return Cents(math.Round(d * 100))
}

// Dollars returns the amount as a float dollar value for JSON responses.
func (c Cents) Dollars() float64 {
	return float64(c) / 100
}

// String formats the amount as a dollar string, e.g. "$12.50".
func (c Cents) String() string {
	sign := ""
	v := c
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}

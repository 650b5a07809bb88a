package model

import (
	"fmt"
	"time"
)

// TaxCycle is a government tax renewal cycle.
type TaxCycle string

// Tax cycles.
const (
	TaxAnnual   TaxCycle = "annual"
	TaxFiveYear TaxCycle = "five_year"
)

// ParseTaxCycle accepts the canonical names and the legacy "tahunan" and
// "5tahunan" spellings.
func ParseTaxCycle(s string) (TaxCycle, error) {
	switch s {
	case string(TaxAnnual), "tahunan":
		return TaxAnnual, nil
	case string(TaxFiveYear), "5tahunan":
		return TaxFiveYear, nil
	default:
		return "", fmt.Errorf("invalid tax type %q", s)
	}
}

// Months is the length of one cycle in months.
func (c TaxCycle) Months() int {
	if c == TaxFiveYear {
		return 60
	}
	return 12
}

// TaxPayment is an immutable record of a tax renewal.
type TaxPayment struct {
	ID        int64     `json:"id"`
	VehicleID int64     `json:"kendaraanId"`
	Cycle     TaxCycle  `json:"type"`
	PaidUntil YearMonth `json:"paidUntil"`
	PaidDate  Date      `json:"paidDate"`
	Cost      *int64    `json:"cost"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

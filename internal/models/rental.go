package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rental is a request to rent a product for an inclusive date range.
// PricePerDay is snapshotted from the product at request time, so later
// catalog price changes never alter existing rentals.
type Rental struct {
	ID                int64           `json:"id"`
	ProductID         int64           `json:"product_id"`
	ProductName       string          `json:"product_name"`
	ClientID          int64           `json:"client_id"`
	OwnerID           int64           `json:"owner_id"`
	StartDate         time.Time       `json:"start_date"`
	EndDate           time.Time       `json:"end_date"`
	NumberOfDays      int64           `json:"number_of_days"`
	PricePerDay       decimal.Decimal `json:"price_per_day"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	Status            string          `json:"status"`
	ClientMessage     string          `json:"client_message,omitempty"`
	OwnerResponse     string          `json:"owner_response,omitempty"`
	AcceptedAt        *time.Time      `json:"accepted_at,omitempty"`
	RejectedAt        *time.Time      `json:"rejected_at,omitempty"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	EquipmentReturned bool            `json:"equipment_returned"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int64           `json:"version"`
}

// DaysBetween counts inclusive calendar days between two dates that are
// normalized to midnight UTC. A single-day rental yields 1.
func DaysBetween(start, end time.Time) int64 {
	return int64(end.Sub(start)/(24*time.Hour)) + 1
}

// TotalPrice computes pricePerDay multiplied by the inclusive day count
// using exact decimal arithmetic.
func TotalPrice(pricePerDay decimal.Decimal, start, end time.Time) decimal.Decimal {
	return pricePerDay.Mul(decimal.NewFromInt(DaysBetween(start, end)))
}

// DateOnly normalizes a timestamp to midnight UTC so rentals compare by
// calendar day regardless of the caller's location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsTerminal reports whether the rental reached an end-of-life status.
func (r *Rental) IsTerminal() bool {
	switch r.Status {
	case StatusRejected, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Overlaps applies the closed-interval test: ranges that merely touch
// (one ends the day the other begins) do conflict, days are inclusive.
func (r *Rental) Overlaps(start, end time.Time) bool {
	return !r.StartDate.After(end) && !r.EndDate.Before(start)
}

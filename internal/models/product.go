package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a rentable asset listed by an owner.
type Product struct {
	ID          int64           `json:"id"`
	OwnerID     int64           `json:"owner_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	PricePerDay decimal.Decimal `json:"price_per_day"`
	IsActive    bool            `json:"is_active"`
	IsAvailable bool            `json:"is_available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

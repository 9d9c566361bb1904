package notify

import (
	"context"
	"time"

	"rentalhub/internal/models"
)

// Sender delivers one notification to its recipient. Implementations
// must be safe for concurrent use by the dispatch worker.
type Sender interface {
	Send(ctx context.Context, kind string, payload RentalEventPayload, recipient *models.User) error
}

// Notification kinds dispatched by the lifecycle engine. The request
// goes to the owner; decisions go back to the client.
const (
	KindRequestCreated = "request_created"
	KindAccepted       = "accepted"
	KindRejected       = "rejected"
)

// RentalEventPayload is the rental snapshot persisted with each queued
// notification, so delivery does not depend on later mutations.
type RentalEventPayload struct {
	RentalID     int64     `json:"rental_id"`
	ProductID    int64     `json:"product_id"`
	ProductName  string    `json:"product_name"`
	ClientID     int64     `json:"client_id"`
	OwnerID      int64     `json:"owner_id"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	NumberOfDays int64     `json:"number_of_days"`
	TotalPrice   string    `json:"total_price"`
	Status       string    `json:"status"`
}

// Snapshot builds the payload from a rental record.
func Snapshot(r *models.Rental) RentalEventPayload {
	return RentalEventPayload{
		RentalID:     r.ID,
		ProductID:    r.ProductID,
		ProductName:  r.ProductName,
		ClientID:     r.ClientID,
		OwnerID:      r.OwnerID,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		NumberOfDays: r.NumberOfDays,
		TotalPrice:   r.TotalPrice.String(),
		Status:       r.Status,
	}
}

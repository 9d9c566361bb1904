package models

import "time"

// NotificationTask is a queued delivery job for the dispatcher. Rows
// survive restarts; redis only accelerates pickup.
type NotificationTask struct {
	ID          int64      `json:"id"`
	Kind        string     `json:"kind"`
	RentalID    int64      `json:"rental_id"`
	RecipientID int64      `json:"recipient_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}

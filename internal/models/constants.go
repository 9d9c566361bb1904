package models

const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	// DateLayout is the storage format for calendar dates.
	DateLayout = "2006-01-02"

	// DefaultMaxAdvanceDays caps how far ahead a rental may start.
	DefaultMaxAdvanceDays = 365

	// NotifyQueueSize is the in-memory fallback queue of the dispatcher.
	NotifyQueueSize = 128

	// DefaultRateLimitRequests and DefaultRateLimitWindow bound API
	// calls per actor.
	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 60 // seconds
)

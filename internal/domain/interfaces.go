package domain

import (
	"context"
	"time"

	"rentalhub/internal/models"
)

// Repository is the persistence surface of the booking engine. All
// multi-row effects (conflict-guarded insert, guarded status updates
// that also flip product availability) run inside one transaction.
type Repository interface {
	// rentals
	GetRental(ctx context.Context, id int64) (*models.Rental, error)
	CreateRentalWithGuard(ctx context.Context, rental *models.Rental) error
	ListRentalsByClient(ctx context.Context, clientID int64) ([]*models.Rental, error)
	ListRentalsByOwner(ctx context.Context, ownerID int64) ([]*models.Rental, error)
	ListPendingRentalsByOwner(ctx context.Context, ownerID int64) ([]*models.Rental, error)
	ListAllRentals(ctx context.Context) ([]*models.Rental, error)
	ListRentalsDueForActivation(ctx context.Context, day time.Time) ([]*models.Rental, error)
	CountConflictingRentals(ctx context.Context, productID int64, start, end time.Time) (int, error)
	AcceptRental(ctx context.Context, id, version int64, response string, at time.Time, activate bool) error
	RejectRental(ctx context.Context, id, version int64, response string, at time.Time) error
	CancelRental(ctx context.Context, id, version int64, at time.Time) error
	CompleteRental(ctx context.Context, id, version int64, at time.Time) error
	ActivateRental(ctx context.Context, id, version int64, at time.Time) error

	// catalog
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListActiveProducts(ctx context.Context) ([]*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	SetProductAvailability(ctx context.Context, id int64, available bool) error

	// identity
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error

	// notification queue
	CreateNotificationTask(ctx context.Context, task *models.NotificationTask) error
	GetPendingNotificationTasks(ctx context.Context, limit int) ([]models.NotificationTask, error)
	UpdateNotificationTaskStatus(ctx context.Context, id int64, status, lastError string, nextRetryAt *time.Time) error
}

// Dispatcher hands a committed state change to the notification
// pipeline. Fire-and-forget: implementations log failures and never
// surface them into the booking operation.
type Dispatcher interface {
	Dispatch(ctx context.Context, kind string, rental *models.Rental, recipientID int64)
}

// RateLimiter bounds API calls per actor key within a window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RentalService is the booking lifecycle engine exposed to transports.
type RentalService interface {
	CreateRental(ctx context.Context, req CreateRentalRequest) (*models.Rental, error)
	ListForClient(ctx context.Context, clientEmail string) ([]*models.Rental, error)
	ListForOwner(ctx context.Context, ownerEmail string) ([]*models.Rental, error)
	ListPendingForOwner(ctx context.Context, ownerEmail string) ([]*models.Rental, error)
	ListAll(ctx context.Context, actorEmail string) ([]*models.Rental, error)
	ListAvailableProducts(ctx context.Context, actorEmail string) ([]*models.Product, error)
	GetByID(ctx context.Context, id int64, actorEmail string) (*models.Rental, error)
	Cancel(ctx context.Context, id int64, clientEmail string) (*models.Rental, error)
	Respond(ctx context.Context, id int64, ownerEmail string, accepted bool, response string) (*models.Rental, error)
	ConfirmReturn(ctx context.Context, id int64, ownerEmail string) (*models.Rental, error)
	ActivateDueRentals(ctx context.Context) (int, error)
}

// CreateRentalRequest carries the client-supplied fields of a booking
// request. Owner and price are always derived from the product.
type CreateRentalRequest struct {
	ProductID   int64
	StartDate   time.Time
	EndDate     time.Time
	ClientEmail string
	Message     string
}

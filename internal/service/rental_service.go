package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentalhub/internal/database"
	"rentalhub/internal/domain"
	"rentalhub/internal/metrics"
	"rentalhub/internal/models"
	"rentalhub/internal/notify"

	"github.com/rs/zerolog"
)

// RentalService is the booking lifecycle engine. It enforces the state
// machine and every business invariant; persistence-level races surface
// from the repository as ErrConcurrentModification and are re-read here
// to tell "lost the race" apart from "state already moved on".
type RentalService struct {
	repo           domain.Repository
	dispatcher     domain.Dispatcher
	maxAdvanceDays int
	now            func() time.Time
	logger         *zerolog.Logger
}

func NewRentalService(repo domain.Repository, dispatcher domain.Dispatcher, maxAdvanceDays int, now func() time.Time, logger *zerolog.Logger) *RentalService {
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = models.DefaultMaxAdvanceDays
	}
	if now == nil {
		now = time.Now
	}
	return &RentalService{
		repo:           repo,
		dispatcher:     dispatcher,
		maxAdvanceDays: maxAdvanceDays,
		now:            now,
		logger:         logger,
	}
}

func (s *RentalService) today() time.Time {
	return models.DateOnly(s.now())
}

// resolveActor loads the caller's account. Unknown emails are NotFound,
// deactivated accounts are Forbidden.
func (s *RentalService) resolveActor(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, &domain.Error{Kind: domain.KindNotFound, Message: "account not found", Actor: email}
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, &domain.Error{Kind: domain.KindForbidden, Message: "account is deactivated", Actor: email}
	}
	return user, nil
}

// isAuthorizedFor is the single visibility predicate: the rental's
// client, its owner, or an administrator.
func isAuthorizedFor(rental *models.Rental, actor *models.User) bool {
	return actor.ID == rental.ClientID || actor.ID == rental.OwnerID || actor.IsAdmin
}

func (s *RentalService) CreateRental(ctx context.Context, req domain.CreateRentalRequest) (*models.Rental, error) {
	client, err := s.resolveActor(ctx, req.ClientEmail)
	if err != nil {
		return nil, err
	}

	product, err := s.repo.GetProduct(ctx, req.ProductID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, &domain.Error{Kind: domain.KindNotFound, Message: "product not found", ProductID: req.ProductID}
	}
	if err != nil {
		return nil, err
	}

	if !product.IsActive || !product.IsAvailable {
		return nil, &domain.Error{Kind: domain.KindItemUnavailable, Message: "product is not available", ProductID: product.ID}
	}
	if product.OwnerID == client.ID {
		return nil, &domain.Error{Kind: domain.KindSelfBookingForbidden, Message: "cannot rent your own equipment", ProductID: product.ID, Actor: client.Email}
	}

	start := models.DateOnly(req.StartDate)
	end := models.DateOnly(req.EndDate)
	if err := s.validateDateRange(start, end, product.ID); err != nil {
		return nil, err
	}

	conflicts, err := s.repo.CountConflictingRentals(ctx, product.ID, start, end)
	if err != nil {
		return nil, err
	}
	if conflicts > 0 {
		return nil, s.dateConflict(product.ID, start, end)
	}

	rental := &models.Rental{
		ProductID:     product.ID,
		ProductName:   product.Name,
		ClientID:      client.ID,
		OwnerID:       product.OwnerID,
		StartDate:     start,
		EndDate:       end,
		NumberOfDays:  models.DaysBetween(start, end),
		PricePerDay:   product.PricePerDay,
		TotalPrice:    models.TotalPrice(product.PricePerDay, start, end),
		Status:        models.StatusPending,
		ClientMessage: req.Message,
	}

	// The repository re-runs the conflict check inside the insert
	// transaction; a concurrent winner turns into a DateConflict here.
	if err := s.repo.CreateRentalWithGuard(ctx, rental); err != nil {
		if errors.Is(err, database.ErrConflictingRental) {
			return nil, s.dateConflict(product.ID, start, end)
		}
		return nil, err
	}

	metrics.IncRentalTransition(models.StatusPending)
	s.logger.Info().Int64("rental_id", rental.ID).Int64("product_id", product.ID).
		Str("client", client.Email).Msg("rental request created")

	s.dispatch(ctx, notify.KindRequestCreated, rental, rental.OwnerID)
	return rental, nil
}

func (s *RentalService) validateDateRange(start, end time.Time, productID int64) error {
	if end.Before(start) {
		return &domain.Error{Kind: domain.KindInvalidDateRange, Message: "end date must not precede start date",
			ProductID: productID, StartDate: start, EndDate: end}
	}
	today := s.today()
	if start.Before(today) {
		return &domain.Error{Kind: domain.KindPastStartDate, Message: "start date must be today or later",
			ProductID: productID, StartDate: start}
	}
	if start.After(today.AddDate(0, 0, s.maxAdvanceDays)) {
		return &domain.Error{Kind: domain.KindInvalidDateRange,
			Message: fmt.Sprintf("start date is more than %d days ahead", s.maxAdvanceDays),
			ProductID: productID, StartDate: start}
	}
	return nil
}

func (s *RentalService) dateConflict(productID int64, start, end time.Time) error {
	return &domain.Error{Kind: domain.KindDateConflict, Message: "product is already booked for the selected dates",
		ProductID: productID, StartDate: start, EndDate: end}
}

func (s *RentalService) ListForClient(ctx context.Context, clientEmail string) ([]*models.Rental, error) {
	client, err := s.resolveActor(ctx, clientEmail)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRentalsByClient(ctx, client.ID)
}

func (s *RentalService) ListForOwner(ctx context.Context, ownerEmail string) ([]*models.Rental, error) {
	owner, err := s.resolveActor(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRentalsByOwner(ctx, owner.ID)
}

func (s *RentalService) ListPendingForOwner(ctx context.Context, ownerEmail string) ([]*models.Rental, error) {
	owner, err := s.resolveActor(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPendingRentalsByOwner(ctx, owner.ID)
}

func (s *RentalService) ListAll(ctx context.Context, actorEmail string) ([]*models.Rental, error) {
	actor, err := s.resolveActor(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		return nil, &domain.Error{Kind: domain.KindForbidden, Message: "administrator capability required", Actor: actor.Email}
	}
	return s.repo.ListAllRentals(ctx)
}

// ListAvailableProducts returns the active catalog for the inventory
// sheet of the report. Admin only, like the full rentals listing.
func (s *RentalService) ListAvailableProducts(ctx context.Context, actorEmail string) ([]*models.Product, error) {
	actor, err := s.resolveActor(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		return nil, &domain.Error{Kind: domain.KindForbidden, Message: "administrator capability required", Actor: actor.Email}
	}
	return s.repo.ListActiveProducts(ctx)
}

func (s *RentalService) GetByID(ctx context.Context, id int64, actorEmail string) (*models.Rental, error) {
	actor, err := s.resolveActor(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	rental, err := s.getRental(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAuthorizedFor(rental, actor) {
		return nil, &domain.Error{Kind: domain.KindForbidden, Message: "not authorized to view this rental",
			RentalID: id, Actor: actor.Email}
	}
	return rental, nil
}

func (s *RentalService) Cancel(ctx context.Context, id int64, clientEmail string) (*models.Rental, error) {
	client, err := s.resolveActor(ctx, clientEmail)
	if err != nil {
		return nil, err
	}
	rental, err := s.getRental(ctx, id)
	if err != nil {
		return nil, err
	}
	if rental.ClientID != client.ID {
		return nil, &domain.Error{Kind: domain.KindForbidden, Message: "only the requesting client may cancel",
			RentalID: id, Actor: client.Email}
	}
	if rental.Status != models.StatusPending {
		return nil, s.invalidTransition(rental, "cancel")
	}

	if err := s.repo.CancelRental(ctx, id, rental.Version, s.now().UTC()); err != nil {
		return nil, s.mapTransitionError(ctx, err, id, "cancel", models.StatusPending)
	}

	metrics.IncRentalTransition(models.StatusCancelled)
	s.logger.Info().Int64("rental_id", id).Str("client", client.Email).Msg("rental cancelled")
	return s.getRental(ctx, id)
}

func (s *RentalService) Respond(ctx context.Context, id int64, ownerEmail string, accepted bool, response string) (*models.Rental, error) {
	owner, err := s.resolveActor(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	rental, err := s.getRental(ctx, id)
	if err != nil {
		return nil, err
	}
	if rental.OwnerID != owner.ID {
		return nil, &domain.Error{Kind: domain.KindForbidden, Message: "only the owner may respond to this request",
			RentalID: id, Actor: owner.Email}
	}
	if rental.Status != models.StatusPending {
		return nil, s.invalidTransition(rental, "respond")
	}

	at := s.now().UTC()
	if accepted {
		// Same-day start activates immediately and flips the product
		// availability inside the same transaction.
		activate := rental.StartDate.Equal(s.today())
		if err := s.repo.AcceptRental(ctx, id, rental.Version, response, at, activate); err != nil {
			return nil, s.mapTransitionError(ctx, err, id, "respond", models.StatusPending)
		}
		if activate {
			metrics.IncRentalTransition(models.StatusActive)
		} else {
			metrics.IncRentalTransition(models.StatusAccepted)
		}
	} else {
		if err := s.repo.RejectRental(ctx, id, rental.Version, response, at); err != nil {
			return nil, s.mapTransitionError(ctx, err, id, "respond", models.StatusPending)
		}
		metrics.IncRentalTransition(models.StatusRejected)
	}

	updated, err := s.getRental(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("rental_id", id).Str("owner", owner.Email).Bool("accepted", accepted).
		Str("status", updated.Status).Msg("owner responded to rental request")

	if accepted {
		s.dispatch(ctx, notify.KindAccepted, updated, updated.ClientID)
	} else {
		s.dispatch(ctx, notify.KindRejected, updated, updated.ClientID)
	}
	return updated, nil
}

func (s *RentalService) ConfirmReturn(ctx context.Context, id int64, ownerEmail string) (*models.Rental, error) {
	owner, err := s.resolveActor(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	rental, err := s.getRental(ctx, id)
	if err != nil {
		return nil, err
	}
	if rental.OwnerID != owner.ID {
		return nil, &domain.Error{Kind: domain.KindForbidden, Message: "only the owner may confirm the return",
			RentalID: id, Actor: owner.Email}
	}
	if rental.Status != models.StatusAccepted && rental.Status != models.StatusActive {
		return nil, s.invalidTransition(rental, "confirm return")
	}

	if err := s.repo.CompleteRental(ctx, id, rental.Version, s.now().UTC()); err != nil {
		return nil, s.mapTransitionError(ctx, err, id, "confirm return", models.StatusAccepted, models.StatusActive)
	}

	metrics.IncRentalTransition(models.StatusCompleted)
	s.logger.Info().Int64("rental_id", id).Str("owner", owner.Email).Msg("equipment return confirmed")
	return s.getRental(ctx, id)
}

// ActivateDueRentals promotes accepted rentals starting today to active
// and takes their products off the shelf. Re-running on the same day is
// a no-op since active rentals no longer match the query.
func (s *RentalService) ActivateDueRentals(ctx context.Context) (int, error) {
	today := s.today()
	due, err := s.repo.ListRentalsDueForActivation(ctx, today)
	if err != nil {
		return 0, err
	}

	activated := 0
	for _, rental := range due {
		if err := s.repo.ActivateRental(ctx, rental.ID, rental.Version, s.now().UTC()); err != nil {
			// Lost a race with a user-triggered transition; skip.
			s.logger.Warn().Err(err).Int64("rental_id", rental.ID).Msg("activation sweep: rental skipped")
			continue
		}
		metrics.IncRentalTransition(models.StatusActive)
		activated++
	}

	if activated > 0 {
		metrics.AddSweepActivations(activated)
		s.logger.Info().Int("activated", activated).Str("day", today.Format(models.DateLayout)).
			Msg("activation sweep finished")
	}
	return activated, nil
}

func (s *RentalService) getRental(ctx context.Context, id int64) (*models.Rental, error) {
	rental, err := s.repo.GetRental(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, &domain.Error{Kind: domain.KindNotFound, Message: "rental not found", RentalID: id}
	}
	if err != nil {
		return nil, err
	}
	return rental, nil
}

func (s *RentalService) invalidTransition(rental *models.Rental, op string) error {
	return &domain.Error{Kind: domain.KindInvalidStateTransition,
		Message:  fmt.Sprintf("cannot %s a rental in status %s", op, rental.Status),
		RentalID: rental.ID, Status: rental.Status}
}

// mapTransitionError distinguishes a guarded update that found the row
// already transitioned from a plain version race.
func (s *RentalService) mapTransitionError(ctx context.Context, err error, id int64, op string, allowedFrom ...string) error {
	if !errors.Is(err, database.ErrConcurrentModification) {
		return err
	}
	current, readErr := s.repo.GetRental(ctx, id)
	if readErr != nil {
		return err
	}
	for _, status := range allowedFrom {
		if current.Status == status {
			// Still in a legal source state: a plain version race.
			return err
		}
	}
	return s.invalidTransition(current, op)
}

// dispatch is fire-and-forget: the queue write happens after the state
// change committed and its failure never fails the operation.
func (s *RentalService) dispatch(ctx context.Context, kind string, rental *models.Rental, recipientID int64) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(ctx, kind, rental, recipientID)
}

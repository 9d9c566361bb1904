package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rentalhub/internal/models"

	"github.com/shopspring/decimal"
)

const rentalColumns = `id, product_id, client_id, owner_id, date(start_date), date(end_date),
	                 number_of_days, price_per_day, total_price, status, client_message,
	                 owner_response, accepted_at, rejected_at, completed_at,
	                 equipment_returned, created_at, updated_at, version`

func scanRental(row interface{ Scan(...any) error }) (*models.Rental, error) {
	var (
		r                  models.Rental
		startStr, endStr   string
		priceStr, totalStr string
		accepted           sql.NullTime
		rejected           sql.NullTime
		completed          sql.NullTime
	)
	err := row.Scan(
		&r.ID, &r.ProductID, &r.ClientID, &r.OwnerID, &startStr, &endStr,
		&r.NumberOfDays, &priceStr, &totalStr, &r.Status, &r.ClientMessage,
		&r.OwnerResponse, &accepted, &rejected, &completed,
		&r.EquipmentReturned, &r.CreatedAt, &r.UpdatedAt, &r.Version,
	)
	if err != nil {
		return nil, err
	}

	if r.StartDate, err = time.Parse(models.DateLayout, startStr); err != nil {
		return nil, fmt.Errorf("failed to parse start date %s: %w", startStr, err)
	}
	if r.EndDate, err = time.Parse(models.DateLayout, endStr); err != nil {
		return nil, fmt.Errorf("failed to parse end date %s: %w", endStr, err)
	}
	if r.PricePerDay, err = decimal.NewFromString(priceStr); err != nil {
		return nil, fmt.Errorf("failed to parse price per day %s: %w", priceStr, err)
	}
	if r.TotalPrice, err = decimal.NewFromString(totalStr); err != nil {
		return nil, fmt.Errorf("failed to parse total price %s: %w", totalStr, err)
	}
	if accepted.Valid {
		r.AcceptedAt = &accepted.Time
	}
	if rejected.Valid {
		r.RejectedAt = &rejected.Time
	}
	if completed.Valid {
		r.CompletedAt = &completed.Time
	}
	return &r, nil
}

func (db *DB) GetRental(ctx context.Context, id int64) (*models.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = ?`
	rental, err := scanRental(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rental: %w", err)
	}
	return rental, nil
}

// CountConflictingRentals is the availability check: closed-interval
// overlap against rentals that hold the product (accepted or active).
func (db *DB) CountConflictingRentals(ctx context.Context, productID int64, start, end time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM rentals
              WHERE product_id = ? AND status IN (?, ?)
              AND date(start_date) <= ? AND date(end_date) >= ?`
	var count int
	err := db.QueryRowContext(ctx, query, productID,
		models.StatusAccepted, models.StatusActive,
		end.Format(models.DateLayout), start.Format(models.DateLayout)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count conflicting rentals: %w", err)
	}
	return count, nil
}

// CreateRentalWithGuard re-checks the conflict set and inserts inside a
// single transaction, so two concurrent requests for overlapping dates
// cannot both commit.
func (db *DB) CreateRentalWithGuard(ctx context.Context, rental *models.Rental) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	queryCount := `SELECT COUNT(*) FROM rentals
                   WHERE product_id = ? AND status IN (?, ?)
                   AND date(start_date) <= ? AND date(end_date) >= ?`
	var conflicts int
	err = tx.QueryRowContext(ctx, queryCount, rental.ProductID,
		models.StatusAccepted, models.StatusActive,
		rental.EndDate.Format(models.DateLayout), rental.StartDate.Format(models.DateLayout)).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("failed to check conflicts in tx: %w", err)
	}
	if conflicts > 0 {
		return ErrConflictingRental
	}

	queryInsert := `INSERT INTO rentals (
				product_id, client_id, owner_id, start_date, end_date, number_of_days,
				price_per_day, total_price, status, client_message, owner_response,
				equipment_returned, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, queryInsert,
		rental.ProductID,
		rental.ClientID,
		rental.OwnerID,
		rental.StartDate.Format(models.DateLayout),
		rental.EndDate.Format(models.DateLayout),
		rental.NumberOfDays,
		rental.PricePerDay.String(),
		rental.TotalPrice.String(),
		rental.Status,
		rental.ClientMessage,
		rental.OwnerResponse,
		false,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rental in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	rental.ID = id
	rental.CreatedAt = now
	rental.UpdatedAt = now
	rental.Version = 1

	return tx.Commit()
}

func (db *DB) listRentals(ctx context.Context, query string, args ...any) ([]*models.Rental, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals: %w", err)
	}
	defer rows.Close()

	var rentals []*models.Rental
	for rows.Next() {
		r, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rental: %w", err)
		}
		rentals = append(rentals, r)
	}
	return rentals, rows.Err()
}

func (db *DB) ListRentalsByClient(ctx context.Context, clientID int64) ([]*models.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE client_id = ? ORDER BY created_at DESC, id DESC`
	return db.listRentals(ctx, query, clientID)
}

func (db *DB) ListRentalsByOwner(ctx context.Context, ownerID int64) ([]*models.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE owner_id = ? ORDER BY created_at DESC, id DESC`
	return db.listRentals(ctx, query, ownerID)
}

func (db *DB) ListPendingRentalsByOwner(ctx context.Context, ownerID int64) ([]*models.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE owner_id = ? AND status = ? ORDER BY created_at DESC, id DESC`
	return db.listRentals(ctx, query, ownerID, models.StatusPending)
}

func (db *DB) ListAllRentals(ctx context.Context) ([]*models.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals ORDER BY created_at DESC, id DESC`
	return db.listRentals(ctx, query)
}

// ListRentalsDueForActivation selects accepted rentals starting on the
// given day regardless of owner.
func (db *DB) ListRentalsDueForActivation(ctx context.Context, day time.Time) ([]*models.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE status = ? AND date(start_date) = ? ORDER BY id ASC`
	return db.listRentals(ctx, query, models.StatusAccepted, day.Format(models.DateLayout))
}

// transitionRental applies one guarded status update and, optionally,
// the product availability flip in the same transaction. rows==0 means
// the row was concurrently modified or is no longer in fromStatus.
// at stamps updated_at so the caller's clock governs every transition.
func (db *DB) transitionRental(ctx context.Context, id, version int64, fromStatuses []string, set string, setArgs []any, productAvailable *bool, at time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE rentals SET ` + set + `, version = version + 1, updated_at = ? WHERE id = ? AND version = ? AND status IN (?`
	args := append(setArgs, at, id, version, fromStatuses[0])
	for _, s := range fromStatuses[1:] {
		query += ", ?"
		args = append(args, s)
	}
	query += ")"

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update rental status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}

	if productAvailable != nil {
		var productID int64
		if err := tx.QueryRowContext(ctx, `SELECT product_id FROM rentals WHERE id = ?`, id).Scan(&productID); err != nil {
			return fmt.Errorf("failed to resolve product for rental: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE products SET is_available = ?, updated_at = ? WHERE id = ?`,
			*productAvailable, at, productID)
		if err != nil {
			return fmt.Errorf("failed to update product availability: %w", err)
		}
	}

	return tx.Commit()
}

func (db *DB) AcceptRental(ctx context.Context, id, version int64, response string, at time.Time, activate bool) error {
	status := models.StatusAccepted
	var availability *bool
	if activate {
		// Same-day acceptance goes straight to active and takes the
		// product off the shelf.
		status = models.StatusActive
		avail := false
		availability = &avail
	}
	return db.transitionRental(ctx, id, version,
		[]string{models.StatusPending},
		`status = ?, owner_response = ?, accepted_at = ?`,
		[]any{status, response, at},
		availability, at)
}

func (db *DB) RejectRental(ctx context.Context, id, version int64, response string, at time.Time) error {
	return db.transitionRental(ctx, id, version,
		[]string{models.StatusPending},
		`status = ?, owner_response = ?, rejected_at = ?`,
		[]any{models.StatusRejected, response, at},
		nil, at)
}

func (db *DB) CancelRental(ctx context.Context, id, version int64, at time.Time) error {
	return db.transitionRental(ctx, id, version,
		[]string{models.StatusPending},
		`status = ?`,
		[]any{models.StatusCancelled},
		nil, at)
}

func (db *DB) CompleteRental(ctx context.Context, id, version int64, at time.Time) error {
	available := true
	return db.transitionRental(ctx, id, version,
		[]string{models.StatusAccepted, models.StatusActive},
		`status = ?, equipment_returned = 1, completed_at = ?`,
		[]any{models.StatusCompleted, at},
		&available, at)
}

func (db *DB) ActivateRental(ctx context.Context, id, version int64, at time.Time) error {
	avail := false
	return db.transitionRental(ctx, id, version,
		[]string{models.StatusAccepted},
		`status = ?`,
		[]any{models.StatusActive},
		&avail, at)
}

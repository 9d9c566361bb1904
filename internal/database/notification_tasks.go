package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rentalhub/internal/models"
)

func (db *DB) CreateNotificationTask(ctx context.Context, task *models.NotificationTask) error {
	query := `INSERT INTO notification_tasks (kind, rental_id, recipient_id, payload, status, retry_count, created_at)
              VALUES (?, ?, ?, ?, ?, 0, ?)`
	now := time.Now().UTC()
	if task.Status == "" {
		task.Status = "pending"
	}
	result, err := db.ExecContext(ctx, query,
		task.Kind, task.RentalID, task.RecipientID, task.Payload, task.Status, now)
	if err != nil {
		return fmt.Errorf("failed to create notification task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

// GetPendingNotificationTasks returns tasks ready for delivery: fresh
// ones plus retries whose backoff expired.
func (db *DB) GetPendingNotificationTasks(ctx context.Context, limit int) ([]models.NotificationTask, error) {
	query := `SELECT id, kind, rental_id, recipient_id, payload, status, retry_count,
	                 last_error, created_at, processed_at, next_retry_at
              FROM notification_tasks
              WHERE status = 'pending' OR (status = 'retry' AND next_retry_at <= ?)
              ORDER BY id ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending notification tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.NotificationTask
	for rows.Next() {
		var (
			t         models.NotificationTask
			lastErr   sql.NullString
			processed sql.NullTime
			nextRetry sql.NullTime
		)
		err := rows.Scan(&t.ID, &t.Kind, &t.RentalID, &t.RecipientID, &t.Payload,
			&t.Status, &t.RetryCount, &lastErr, &t.CreatedAt, &processed, &nextRetry)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification task: %w", err)
		}
		if lastErr.Valid {
			t.LastError = &lastErr.String
		}
		if processed.Valid {
			t.ProcessedAt = &processed.Time
		}
		if nextRetry.Valid {
			t.NextRetryAt = &nextRetry.Time
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (db *DB) UpdateNotificationTaskStatus(ctx context.Context, id int64, status, lastError string, nextRetryAt *time.Time) error {
	query := `UPDATE notification_tasks
              SET status = ?, last_error = ?, retry_count = retry_count + (CASE WHEN ? = 'retry' THEN 1 ELSE 0 END),
                  processed_at = (CASE WHEN ? IN ('completed', 'failed') THEN ? ELSE processed_at END),
                  next_retry_at = ?
              WHERE id = ?`
	var errVal any
	if lastError != "" {
		errVal = lastError
	}
	_, err := db.ExecContext(ctx, query, status, errVal, status, status, time.Now().UTC(), nextRetryAt, id)
	if err != nil {
		return fmt.Errorf("failed to update notification task: %w", err)
	}
	return nil
}

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "github.com/mattn/go-sqlite3"
)

// Sentinel errors of the persistence layer. Business kinds live in
// internal/domain; these cover row-level outcomes the service maps.
var (
	ErrNotFound               = errors.New("record not found")
	ErrConflictingRental      = errors.New("conflicting rental exists for the date range")
	ErrConcurrentModification = errors.New("record was modified concurrently")
)

type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            email TEXT UNIQUE NOT NULL,
            full_name TEXT NOT NULL,
            is_admin BOOLEAN NOT NULL DEFAULT 0,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            telegram_chat_id INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS products (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            owner_id INTEGER NOT NULL REFERENCES users(id),
            name TEXT NOT NULL,
            description TEXT,
            price_per_day TEXT NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            is_available BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS rentals (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            product_id INTEGER NOT NULL REFERENCES products(id),
            client_id INTEGER NOT NULL REFERENCES users(id),
            owner_id INTEGER NOT NULL REFERENCES users(id),
            start_date DATE NOT NULL,
            end_date DATE NOT NULL,
            number_of_days INTEGER NOT NULL,
            price_per_day TEXT NOT NULL,
            total_price TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            client_message TEXT NOT NULL DEFAULT '',
            owner_response TEXT NOT NULL DEFAULT '',
            accepted_at DATETIME,
            rejected_at DATETIME,
            completed_at DATETIME,
            equipment_returned BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS notification_tasks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            kind TEXT NOT NULL,
            rental_id INTEGER NOT NULL,
            recipient_id INTEGER NOT NULL,
            payload TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_products_owner_id ON products(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rentals_product_id ON rentals(product_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rentals_client_id ON rentals(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rentals_owner_id ON rentals(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rentals_status ON rentals(status)`,
		`CREATE INDEX IF NOT EXISTS idx_rentals_status_start ON rentals(status, start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_notification_tasks_status ON notification_tasks(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

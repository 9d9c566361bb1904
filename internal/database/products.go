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

const productColumns = `id, owner_id, name, description, price_per_day, is_active, is_available, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var (
		p        models.Product
		priceStr string
		desc     sql.NullString
	)
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &desc, &priceStr,
		&p.IsActive, &p.IsAvailable, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = desc.String
	if p.PricePerDay, err = decimal.NewFromString(priceStr); err != nil {
		return nil, fmt.Errorf("failed to parse price per day %s: %w", priceStr, err)
	}
	return &p, nil
}

func (db *DB) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	product, err := scanProduct(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (db *DB) ListActiveProducts(ctx context.Context) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active = 1 ORDER BY id ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (db *DB) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `INSERT INTO products (owner_id, name, description, price_per_day, is_active, is_available, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		product.OwnerID, product.Name, product.Description, product.PricePerDay.String(),
		product.IsActive, product.IsAvailable, now, now)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	product.ID = id
	product.CreatedAt = now
	product.UpdatedAt = now
	return nil
}

func (db *DB) SetProductAvailability(ctx context.Context, id int64, available bool) error {
	query := `UPDATE products SET is_available = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, available, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set product availability: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

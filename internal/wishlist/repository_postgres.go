package wishlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wichananm65/storefront-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const itemColumns = `id, user_id, product_id, variant_id, created_at`

const (
	listItemsQuery = `
		SELECT ` + itemColumns + `
		FROM wishlist_items
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	findItemQuery = `
		SELECT ` + itemColumns + `
		FROM wishlist_items
		WHERE user_id = $1 AND product_id = $2 AND variant_id IS NOT DISTINCT FROM $3
	`
	insertItemQuery = `
		INSERT INTO wishlist_items (id, user_id, product_id, variant_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + itemColumns
	deleteItemQuery    = `DELETE FROM wishlist_items WHERE user_id = $1 AND id = $2`
	clearWishlistQuery = `DELETE FROM wishlist_items WHERE user_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, listItemsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	out := make([]Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Find(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) (Item, error) {
	return queryItem(r.db.QueryRowContext(ctx, findItemQuery, userID, productID, variantID))
}

func (r *PostgresRepository) Create(ctx context.Context, item Item) (Item, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	created, err := queryItem(r.db.QueryRowContext(ctx, insertItemQuery,
		item.ID, item.UserID, item.ProductID, item.VariantID, item.CreatedAt))
	if database.HasCode(err, database.CodeUniqueViolation) {
		return Item{}, ErrAlreadyInWishlist
	}
	return created, err
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, deleteItemQuery, userID, id)
	if err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("res.RowsAffected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, clearWishlistQuery, userID); err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}
	return nil
}

func queryItem(row rowScanner) (Item, error) {
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("db.QueryRow: %w", err)
	}
	return it, nil
}

func scanItem(row rowScanner) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.UserID, &it.ProductID, &it.VariantID, &it.CreatedAt)
	return it, err
}

package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const itemColumns = `id, user_id, product_id, variant_id, quantity, created_at, updated_at`

const (
	listItemsQuery = `
		SELECT ` + itemColumns + `
		FROM cart_items
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	getItemQuery = `
		SELECT ` + itemColumns + `
		FROM cart_items
		WHERE user_id = $1 AND id = $2
	`
	findItemQuery = `
		SELECT ` + itemColumns + `
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2 AND variant_id IS NOT DISTINCT FROM $3
	`
	insertItemQuery = `
		INSERT INTO cart_items (id, user_id, product_id, variant_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + itemColumns
	updateQuantityQuery = `
		UPDATE cart_items SET quantity = $3, updated_at = $4
		WHERE user_id = $1 AND id = $2
		RETURNING ` + itemColumns
	deleteItemQuery = `DELETE FROM cart_items WHERE user_id = $1 AND id = $2`
	clearCartQuery  = `DELETE FROM cart_items WHERE user_id = $1`
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

func (r *PostgresRepository) Get(ctx context.Context, userID, id uuid.UUID) (Item, error) {
	return queryItem(r.db.QueryRowContext(ctx, getItemQuery, userID, id))
}

func (r *PostgresRepository) Find(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) (Item, error) {
	return queryItem(r.db.QueryRowContext(ctx, findItemQuery, userID, productID, variantID))
}

func (r *PostgresRepository) Create(ctx context.Context, item Item) (Item, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return queryItem(r.db.QueryRowContext(ctx, insertItemQuery,
		item.ID, item.UserID, item.ProductID, item.VariantID, item.Quantity, item.CreatedAt, item.UpdatedAt))
}

func (r *PostgresRepository) UpdateQuantity(ctx context.Context, userID, id uuid.UUID, quantity int, updatedAt time.Time) (Item, error) {
	return queryItem(r.db.QueryRowContext(ctx, updateQuantityQuery, userID, id, quantity, updatedAt))
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
	if _, err := r.db.ExecContext(ctx, clearCartQuery, userID); err != nil {
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
	err := row.Scan(&it.ID, &it.UserID, &it.ProductID, &it.VariantID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

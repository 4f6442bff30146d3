package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wichananm65/storefront-backend/internal/database"
)

// PostgresRepository implements Repository using Postgres.
type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const categoryColumns = `id, name, description, image, parent_id, created_at, updated_at`

const (
	listCategoriesQuery = `
		SELECT ` + categoryColumns + `
		FROM categories
		ORDER BY name, id
	`
	getCategoryQuery = `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE id = $1
	`
	insertCategoryQuery = `
		INSERT INTO categories (id, name, description, image, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + categoryColumns
	updateCategoryQuery = `
		UPDATE categories SET name = $2, description = $3, image = $4, parent_id = $5, updated_at = $6
		WHERE id = $1
		RETURNING ` + categoryColumns
	deleteCategoryQuery = `DELETE FROM categories WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, listCategoriesQuery)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Category, error) {
	return queryCategory(r.db.QueryRowContext(ctx, getCategoryQuery, id))
}

func (r *PostgresRepository) Create(ctx context.Context, c Category) (Category, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	created, err := queryCategory(r.db.QueryRowContext(ctx, insertCategoryQuery,
		c.ID, c.Name, c.Description, c.Image, c.ParentID, c.CreatedAt, c.UpdatedAt))
	if database.HasCode(err, database.CodeForeignKeyViolation) {
		return Category{}, ErrParentNotFound
	}
	return created, err
}

func (r *PostgresRepository) Update(ctx context.Context, c Category) (Category, error) {
	updated, err := queryCategory(r.db.QueryRowContext(ctx, updateCategoryQuery,
		c.ID, c.Name, c.Description, c.Image, c.ParentID, c.UpdatedAt))
	if database.HasCode(err, database.CodeForeignKeyViolation) {
		return Category{}, ErrParentNotFound
	}
	return updated, err
}

// Delete refuses categories still referenced by a child or a product.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, deleteCategoryQuery, id)
	if err != nil {
		if database.HasCode(err, database.CodeForeignKeyViolation) {
			return ErrInUse
		}
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

func queryCategory(row rowScanner) (Category, error) {
	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Category{}, ErrNotFound
		}
		return Category{}, fmt.Errorf("db.QueryRow: %w", err)
	}
	return c, nil
}

func scanCategory(row rowScanner) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.ParentID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

package address

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/lo"
	"github.com/wichananm65/storefront-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const addressColumns = `id, user_id, type, name, phone, address1, address2, city, state, postal_code, country, is_default, created_at, updated_at`

const (
	listAddressesQuery = `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC
	`
	getAddressQuery = `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1 AND id = $2
	`
	findAddressesQuery = `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1 AND id = ANY($2)
	`
	clearDefaultQuery = `
		UPDATE addresses SET is_default = false, updated_at = now()
		WHERE user_id = $1 AND is_default AND id <> $2
	`
	insertAddressQuery = `
		INSERT INTO addresses (id, user_id, type, name, phone, address1, address2, city, state, postal_code, country, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + addressColumns
	updateAddressQuery = `
		UPDATE addresses
		SET type = $3, name = $4, phone = $5, address1 = $6, address2 = $7, city = $8, state = $9,
			postal_code = $10, country = $11, is_default = $12, updated_at = $13
		WHERE user_id = $1 AND id = $2
		RETURNING ` + addressColumns
	setDefaultQuery = `
		UPDATE addresses SET is_default = true, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING ` + addressColumns
	deleteAddressQuery = `
		DELETE FROM addresses WHERE user_id = $1 AND id = $2
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID uuid.UUID) ([]Address, error) {
	return r.query(ctx, listAddressesQuery, userID)
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id uuid.UUID) (Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx, getAddressQuery, userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Address{}, ErrNotFound
		}
		return Address{}, fmt.Errorf("db.QueryRow: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) FindForUser(ctx context.Context, userID uuid.UUID, ids ...uuid.UUID) ([]Address, error) {
	if len(ids) == 0 {
		return []Address{}, nil
	}
	keys := lo.Map(lo.Uniq(ids), func(id uuid.UUID, _ int) string { return id.String() })
	return r.query(ctx, findAddressesQuery, userID, pq.Array(keys))
}

func (r *PostgresRepository) Create(ctx context.Context, a Address) (Address, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return r.writeInTx(ctx, a, func(tx *sql.Tx) *sql.Row {
		return tx.QueryRowContext(ctx, insertAddressQuery,
			a.ID, a.UserID, a.Type, a.Name, a.Phone, a.Address1, a.Address2, a.City, a.State,
			a.PostalCode, a.Country, a.IsDefault, a.CreatedAt, a.UpdatedAt)
	})
}

func (r *PostgresRepository) Update(ctx context.Context, a Address) (Address, error) {
	return r.writeInTx(ctx, a, func(tx *sql.Tx) *sql.Row {
		return tx.QueryRowContext(ctx, updateAddressQuery,
			a.UserID, a.ID, a.Type, a.Name, a.Phone, a.Address1, a.Address2, a.City, a.State,
			a.PostalCode, a.Country, a.IsDefault, a.UpdatedAt)
	})
}

func (r *PostgresRepository) SetDefault(ctx context.Context, userID, id uuid.UUID) (Address, error) {
	return r.writeInTx(ctx, Address{ID: id, UserID: userID, IsDefault: true}, func(tx *sql.Tx) *sql.Row {
		return tx.QueryRowContext(ctx, setDefaultQuery, userID, id)
	})
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, deleteAddressQuery, userID, id)
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

// writeInTx clears the user's other default before running write when a is the new default.
func (r *PostgresRepository) writeInTx(ctx context.Context, a Address, write func(tx *sql.Tx) *sql.Row) (_ Address, txErr error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Address{}, fmt.Errorf("db.BeginTx: %w", err)
	}
	defer func() {
		if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rbErr))
			}
		}
	}()

	if a.IsDefault {
		if _, err := tx.ExecContext(ctx, clearDefaultQuery, a.UserID, a.ID); err != nil {
			return Address{}, fmt.Errorf("clear default: %w", err)
		}
	}

	saved, err := scanAddress(write(tx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Address{}, ErrNotFound
		}
		return Address{}, fmt.Errorf("tx.QueryRow: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Address{}, fmt.Errorf("tx.Commit: %w", err)
	}
	return saved, nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]Address, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	out := make([]Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return out, nil
}

func scanAddress(row rowScanner) (Address, error) {
	var a Address
	err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.Name, &a.Phone, &a.Address1, &a.Address2,
		&a.City, &a.State, &a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

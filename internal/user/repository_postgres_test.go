package user

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "email", "password", "name", "created_at", "updated_at"}

func newMockRepository(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestPostgresRepository_GetByEmail(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("FROM users").WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(id.String(), "a@example.com", "hash", "Alice", now, now))

	got, err := repo.GetByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Alice", got.Name)
}

func TestPostgresRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()

	mock.ExpectQuery("FROM users").WithArgs(id).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), User{Email: "a@example.com", Password: "hash"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

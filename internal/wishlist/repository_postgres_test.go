package wishlist

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/storefront-backend/internal/database"
)

var itemRowColumns = []string{"id", "user_id", "product_id", "variant_id", "created_at"}

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

func TestPostgresRepository_FindWithoutVariant(t *testing.T) {
	repo, mock := newMockRepository(t)
	owner, productID, id := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery("IS NOT DISTINCT FROM").WithArgs(owner, productID, nil).
		WillReturnRows(sqlmock.NewRows(itemRowColumns).AddRow(id.String(), owner.String(), productID.String(), nil, time.Now()))

	got, err := repo.Find(context.Background(), owner, productID, nil)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Nil(t, got.VariantID)
}

func TestPostgresRepository_FindMissing(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("FROM wishlist_items").WillReturnRows(sqlmock.NewRows(itemRowColumns))

	_, err := repo.Find(context.Background(), uuid.New(), uuid.New(), nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresRepository_ListScansVariant(t *testing.T) {
	repo, mock := newMockRepository(t)
	owner, productID, variantID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery("ORDER BY created_at DESC").WithArgs(owner).
		WillReturnRows(sqlmock.NewRows(itemRowColumns).
			AddRow(uuid.NewString(), owner.String(), productID.String(), variantID.String(), time.Now()))

	got, err := repo.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].VariantID)
	assert.Equal(t, variantID, *got[0].VariantID)
}

func TestPostgresRepository_CreateDuplicate(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("INSERT INTO wishlist_items").
		WillReturnError(&pgconn.PgError{Code: database.CodeUniqueViolation})

	_, err := repo.Create(context.Background(), Item{UserID: uuid.New(), ProductID: uuid.New(), CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrAlreadyInWishlist)
}

func TestPostgresRepository_DeleteMissing(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("DELETE FROM wishlist_items").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), uuid.New(), uuid.New()), ErrNotFound)
}

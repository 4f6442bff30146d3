package product

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/wichananm65/storefront-backend/internal/database/dbtest"
)

type postgresRepositorySuite struct {
	suite.Suite

	container testcontainers.Container
	pool      *pgxpool.Pool
	repo      *PostgresRepository
}

func TestPostgresRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	suite.Run(t, new(postgresRepositorySuite))
}

func (suite *postgresRepositorySuite) SetupSuite() {
	var err error
	suite.container, suite.pool, err = dbtest.Start(suite.T().Context())
	suite.Require().NoError(err)

	suite.repo = NewPostgresRepository(suite.pool)
}

func (suite *postgresRepositorySuite) TearDownSuite() {
	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.NoError(suite.container.Terminate(suite.T().Context()))
	}
}

func (suite *postgresRepositorySuite) TearDownTest() {
	suite.NoError(dbtest.Truncate(suite.T().Context(), suite.pool))
}

func (suite *postgresRepositorySuite) TestCreateAndGet() {
	ctx := suite.T().Context()
	want := randomProduct(2)

	created, err := suite.repo.Create(ctx, want)
	suite.Require().NoError(err)

	got, err := suite.repo.Get(ctx, created.ID)
	suite.Require().NoError(err)
	assertProduct(suite.T(), want, got)

	_, err = suite.repo.Get(ctx, randomProduct(0).ID)
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *postgresRepositorySuite) TestCreateDuplicateSKU() {
	ctx := suite.T().Context()
	sku := "SKU-DUP"

	first := randomProduct(0)
	first.SKU = &sku
	_, err := suite.repo.Create(ctx, first)
	suite.Require().NoError(err)

	second := randomProduct(0)
	second.SKU = &sku
	_, err = suite.repo.Create(ctx, second)
	suite.ErrorIs(err, ErrSKUExists)
}

func (suite *postgresRepositorySuite) TestListSearchAndPaging() {
	ctx := suite.T().Context()
	for range 3 {
		_, err := suite.repo.Create(ctx, randomProduct(1))
		suite.Require().NoError(err)
	}
	hidden := randomProduct(0)
	hidden.IsActive = false
	_, err := suite.repo.Create(ctx, hidden)
	suite.Require().NoError(err)

	page, total, err := suite.repo.List(ctx, Filter{Page: 1, Limit: 2})
	suite.Require().NoError(err)
	suite.Equal(3, total)
	suite.Len(page, 2)
	suite.Len(page[0].Variants, 1)

	target := randomProduct(0)
	target.Name = "Unique Catnip Blend"
	_, err = suite.repo.Create(ctx, target)
	suite.Require().NoError(err)

	page, total, err = suite.repo.List(ctx, Filter{Search: "catnip", Page: 1, Limit: 10})
	suite.Require().NoError(err)
	suite.Equal(1, total)
	suite.Equal(target.ID, page[0].ID)
}

func (suite *postgresRepositorySuite) TestCategoryFilterAndCount() {
	ctx := suite.T().Context()
	toys := uuid.New()
	_, err := suite.pool.Exec(ctx, `INSERT INTO categories (id, name) VALUES ($1, 'Toys')`, toys)
	suite.Require().NoError(err)

	ball := randomProduct(0)
	ball.CategoryID = &toys
	_, err = suite.repo.Create(ctx, ball)
	suite.Require().NoError(err)
	_, err = suite.repo.Create(ctx, randomProduct(0))
	suite.Require().NoError(err)

	page, total, err := suite.repo.List(ctx, Filter{CategoryID: &toys, Page: 1, Limit: 10})
	suite.Require().NoError(err)
	suite.Equal(1, total)
	suite.Require().Len(page, 1)
	suite.Equal(ball.ID, page[0].ID)
	suite.Equal(&toys, page[0].CategoryID)

	n, err := suite.repo.CountByCategory(ctx, toys)
	suite.Require().NoError(err)
	suite.Equal(1, n)

	missing := uuid.New()
	orphan := randomProduct(0)
	orphan.CategoryID = &missing
	_, err = suite.repo.Create(ctx, orphan)
	suite.ErrorIs(err, ErrInvalid)
}

func (suite *postgresRepositorySuite) TestApplyStockChanges() {
	ctx := suite.T().Context()
	p := randomProduct(1)
	p.Stock = 10
	p.Variants[0].Stock = 3
	_, err := suite.repo.Create(ctx, p)
	suite.Require().NoError(err)
	variantID := p.Variants[0].ID

	err = suite.repo.ApplyStockChanges(ctx, []StockChange{
		{ProductID: p.ID, Delta: -4},
		{ProductID: p.ID, VariantID: &variantID, Delta: -5},
	})
	suite.ErrorIs(err, ErrInsufficientStock)
	suite.assertStock(p, 10, 3)

	err = suite.repo.ApplyStockChanges(ctx, []StockChange{
		{ProductID: p.ID, Delta: -4},
		{ProductID: p.ID, VariantID: &variantID, Delta: -3},
	})
	suite.Require().NoError(err)
	suite.assertStock(p, 6, 0)

	missing := randomProduct(0)
	err = suite.repo.ApplyStockChanges(ctx, []StockChange{{ProductID: missing.ID, Delta: 1}})
	suite.ErrorIs(err, ErrNotFound)

	err = suite.repo.ApplyStockChanges(ctx, []StockChange{{ProductID: p.ID, VariantID: &missing.ID, Delta: 1}})
	suite.ErrorIs(err, ErrVariantNotFound)
}

func (suite *postgresRepositorySuite) TestApplyStockChangesInOuterTx() {
	ctx := suite.T().Context()
	p := randomProduct(0)
	p.Stock = 5
	_, err := suite.repo.Create(ctx, p)
	suite.Require().NoError(err)

	tx, err := suite.pool.Begin(ctx)
	suite.Require().NoError(err)

	err = NewPostgresRepositoryWithTx(tx).ApplyStockChanges(ctx, []StockChange{{ProductID: p.ID, Delta: -5}})
	suite.Require().NoError(err)
	suite.Require().NoError(tx.Rollback(ctx))

	suite.assertStock(p, 5, -1)
}

func (suite *postgresRepositorySuite) assertStock(p Product, product, variant int) {
	got, err := suite.repo.Get(suite.T().Context(), p.ID)
	suite.Require().NoError(err)
	suite.Equal(product, got.Stock)
	if variant >= 0 {
		suite.Equal(variant, got.Variants[0].Stock)
	}
}

func assertProduct(t *testing.T, want, got Product) {
	t.Helper()
	opts := cmp.Options{
		cmpopts.EquateApproxTime(0),
		cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
		cmpopts.SortSlices(func(a, b Variant) bool { return a.ID.String() < b.ID.String() }),
	}
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Errorf("product mismatch (-want +got):\n%s", diff)
	}
}

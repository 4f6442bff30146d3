package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/wichananm65/storefront-backend/internal/database"
)

type PostgresRepository struct {
	db database.DBTX
}

const (
	productColumns = `id, name, description, sku, price, stock, is_active, category_id, created_at, updated_at`
	variantColumns = `id, product_id, name, sku, price, stock, created_at, updated_at`

	productSearchClause = `
		is_active
		AND ($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%' OR sku ILIKE '%' || $1 || '%')
		AND ($2::uuid IS NULL OR category_id = $2)
	`
	countProductsQuery = `SELECT count(*) FROM products WHERE ` + productSearchClause
	listProductsQuery  = `
		SELECT ` + productColumns + `
		FROM products
		WHERE ` + productSearchClause + `
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4
	`
	getProductsQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1::uuid[])
	`
	getVariantsQuery = `
		SELECT ` + variantColumns + `
		FROM product_variants
		WHERE product_id = ANY($1::uuid[])
		ORDER BY created_at, id
	`
	insertProductQuery = `
		INSERT INTO products (id, name, description, sku, price, stock, is_active, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	insertVariantQuery = `
		INSERT INTO product_variants (id, product_id, name, sku, price, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	adjustProductStockQuery = `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND stock + $2 >= 0
	`
	adjustVariantStockQuery = `
		UPDATE product_variants SET stock = stock + $3, updated_at = now()
		WHERE id = $1 AND product_id = $2 AND stock + $3 >= 0
	`
	countByCategoryQuery = `SELECT count(*) FROM products WHERE category_id = $1`
	productExistsQuery   = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`
	variantExistsQuery = `SELECT EXISTS (SELECT 1 FROM product_variants WHERE id = $1 AND product_id = $2)`
)

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithTx runs every call inside the caller's transaction.
func NewPostgresRepositoryWithTx(tx pgx.Tx) *PostgresRepository {
	return &PostgresRepository{db: tx}
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Product, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, countProductsQuery, f.Search, f.CategoryID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	rows, err := r.db.Query(ctx, listProductsQuery, f.Search, f.CategoryID, f.Limit, f.offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, 0, fmt.Errorf("pgx.CollectRows: %w", err)
	}

	if err := r.attachVariants(ctx, products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	products, err := r.GetMany(ctx, []uuid.UUID{id})
	if err != nil {
		return Product{}, err
	}
	if len(products) == 0 {
		return Product{}, ErrNotFound
	}
	return products[0], nil
}

func (r *PostgresRepository) GetMany(ctx context.Context, ids []uuid.UUID) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}

	rows, err := r.db.Query(ctx, getProductsQuery, lo.Uniq(ids))
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}

	if err := r.attachVariants(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for i := range p.Variants {
		if p.Variants[i].ID == uuid.Nil {
			p.Variants[i].ID = uuid.New()
		}
		p.Variants[i].ProductID = p.ID
	}

	err := database.Exec(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertProductQuery,
			p.ID, p.Name, p.Description, p.SKU, p.Price, p.Stock, p.IsActive, p.CategoryID, p.CreatedAt, p.UpdatedAt); err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		for _, v := range p.Variants {
			if _, err := tx.Exec(ctx, insertVariantQuery,
				v.ID, v.ProductID, v.Name, v.SKU, v.Price, v.Stock, v.CreatedAt, v.UpdatedAt); err != nil {
				return fmt.Errorf("insert variant: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case database.HasCode(err, database.CodeUniqueViolation):
			return Product{}, ErrSKUExists
		case database.HasCode(err, database.CodeForeignKeyViolation):
			return Product{}, fmt.Errorf("%w: category does not exist", ErrInvalid)
		}
		return Product{}, err
	}

	return r.Get(ctx, p.ID)
}

func (r *PostgresRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, countByCategoryQuery, categoryID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products by category: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ApplyStockChanges(ctx context.Context, changes []StockChange) error {
	return database.Exec(ctx, r.db, func(tx pgx.Tx) error {
		for _, ch := range changes {
			if err := applyStockChange(ctx, tx, ch); err != nil {
				return err
			}
		}
		return nil
	})
}

// applyStockChange is a single conditional update; a zero-row result means the
// counter would go negative or the row is missing.
func applyStockChange(ctx context.Context, tx database.DBTX, ch StockChange) error {
	var (
		query, exists = adjustProductStockQuery, productExistsQuery
		args          = []any{ch.ProductID, ch.Delta}
		existsArgs    = []any{ch.ProductID}
		missing       = ErrNotFound
	)
	if ch.VariantID != nil {
		query, exists = adjustVariantStockQuery, variantExistsQuery
		args = []any{*ch.VariantID, ch.ProductID, ch.Delta}
		existsArgs = []any{*ch.VariantID, ch.ProductID}
		missing = ErrVariantNotFound
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("adjust stock %s: %w", ch, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var found bool
	if err := tx.QueryRow(ctx, exists, existsArgs...).Scan(&found); err != nil {
		return fmt.Errorf("check stock row %s: %w", ch, err)
	}
	if !found {
		return &StockError{Change: ch, Err: missing}
	}
	return &StockError{Change: ch, Err: ErrInsufficientStock}
}

func (r *PostgresRepository) attachVariants(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := lo.Map(products, func(p Product, _ int) uuid.UUID { return p.ID })
	rows, err := r.db.Query(ctx, getVariantsQuery, ids)
	if err != nil {
		return fmt.Errorf("get variants: %w", err)
	}
	variants, err := pgx.CollectRows(rows, scanVariant)
	if err != nil {
		return fmt.Errorf("pgx.CollectRows: %w", err)
	}

	byProduct := lo.GroupBy(variants, func(v Variant) uuid.UUID { return v.ProductID })
	for i := range products {
		products[i].Variants = byProduct[products[i].ID]
		if products[i].Variants == nil {
			products[i].Variants = []Variant{}
		}
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.SKU, &p.Price, &p.Stock, &p.IsActive, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanVariant(row pgx.CollectableRow) (Variant, error) {
	var v Variant
	err := row.Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU, &v.Price, &v.Stock, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// IsStockError reports whether err came from a stock change that could not be applied.
func IsStockError(err error) bool {
	var se *StockError
	return errors.As(err, &se)
}

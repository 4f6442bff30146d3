package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/wichananm65/storefront-backend/internal/database"
	"github.com/wichananm65/storefront-backend/internal/product"
	"golang.org/x/sync/errgroup"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

const (
	orderColumns = `id, order_number, user_id, status, subtotal, tax_amount, shipping_amount, total_amount,
		currency, notes, shipping_address_id, billing_address_id, created_at, updated_at`

	insertOrderQuery = `
		INSERT INTO orders (id, order_number, user_id, status, subtotal, tax_amount, shipping_amount, total_amount,
			currency, notes, shipping_address_id, billing_address_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	insertItemQuery = `
		INSERT INTO order_items (id, order_id, product_id, variant_id, line_no, quantity, price, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	insertShippingQuery = `
		INSERT INTO shippings (id, order_id, method, status, tracking_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	orderFilterClause = `
		user_id = $1
		AND ($2::text IS NULL OR status = $2::text)
		AND ($3 = '' OR strpos(order_number, $3) > 0)
	`
	countOrdersQuery = `SELECT count(*) FROM orders WHERE ` + orderFilterClause
	listOrdersQuery  = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ` + orderFilterClause + `
		ORDER BY created_at DESC, id
		LIMIT $4 OFFSET $5
	`
	getOrderQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1 AND user_id = $2
	`
	lockOrderQuery = getOrderQuery + ` FOR UPDATE`

	getItemsQuery = `
		SELECT oi.id, oi.order_id, oi.product_id, oi.variant_id, oi.quantity, oi.price, oi.total_price, oi.created_at,
			COALESCE(p.name, ''), v.name
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		LEFT JOIN product_variants v ON v.id = oi.variant_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.order_id, oi.line_no
	`
	getShippingsQuery = `
		SELECT id, order_id, method, status, tracking_number, created_at, updated_at
		FROM shippings
		WHERE order_id = ANY($1::uuid[])
	`
	updateOrderQuery = `
		UPDATE orders
		SET status = COALESCE($3, status), notes = COALESCE($4, notes), updated_at = $5
		WHERE id = $1 AND user_id = $2
	`
	cancelOrderQuery = `
		UPDATE orders
		SET status = COALESCE($3, status), notes = COALESCE($4, notes), updated_at = $5
		WHERE id = $1 AND user_id = $2 AND status <> 'CANCELLED'
	`
)

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, o Order) (Order, error) {
	err := database.Exec(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertOrderQuery,
			o.ID, o.OrderNumber, o.UserID, string(o.Status), o.Subtotal, o.TaxAmount, o.ShippingAmount, o.TotalAmount,
			o.Currency, o.Notes, o.ShippingAddressID, o.BillingAddressID, o.CreatedAt, o.UpdatedAt); err != nil {
			switch {
			case database.HasCode(err, database.CodeUniqueViolation):
				return ErrNumberTaken
			case database.HasCode(err, database.CodeForeignKeyViolation):
				return fmt.Errorf("%w: user or address no longer exists", ErrInvalidRequest)
			}
			return fmt.Errorf("insert order: %w", err)
		}

		batch := &pgx.Batch{}
		for i, it := range o.Items {
			batch.Queue(insertItemQuery,
				it.ID, o.ID, it.ProductID, it.VariantID, i, it.Quantity, it.Price, it.TotalPrice, it.CreatedAt)
		}
		if o.Shipping != nil {
			s := o.Shipping
			batch.Queue(insertShippingQuery,
				s.ID, o.ID, string(s.Method), s.Status, s.TrackingNumber, s.CreatedAt, s.UpdatedAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			if database.HasCode(err, database.CodeForeignKeyViolation) {
				return fmt.Errorf("%w: product no longer exists", ErrInvalidRequest)
			}
			return fmt.Errorf("insert items: %w", err)
		}

		if err := product.NewPostgresRepositoryWithTx(tx).ApplyStockChanges(ctx, stockChanges(o.Items, -1)); err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	return r.Get(ctx, o.UserID, o.ID)
}

func (r *PostgresRepository) List(ctx context.Context, userID uuid.UUID, f ListFilter) ([]Order, int, error) {
	var status *string
	if f.Status != nil {
		status = lo.ToPtr(string(*f.Status))
	}

	var (
		total  int
		orders []Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.pool.QueryRow(gctx, countOrdersQuery, userID, status, f.OrderNumber).Scan(&total); err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := r.pool.Query(gctx, listOrdersQuery, userID, status, f.OrderNumber, f.Limit, f.offset())
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		orders, err = pgx.CollectRows(rows, scanOrder)
		if err != nil {
			return fmt.Errorf("pgx.CollectRows: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	if err := loadDetails(ctx, r.pool, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id uuid.UUID) (Order, error) {
	return getOrder(ctx, r.pool, getOrderQuery, userID, id)
}

func (r *PostgresRepository) Update(ctx context.Context, userID, id uuid.UUID, fn UpdateFunc) (Order, error) {
	err := database.Exec(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := getOrder(ctx, tx, lockOrderQuery, userID, id)
		if err != nil {
			return err
		}

		change, err := fn(current)
		if err != nil {
			return err
		}

		query := updateOrderQuery
		if change.Restock {
			if err := product.NewPostgresRepositoryWithTx(tx).ApplyStockChanges(ctx, stockChanges(current.Items, 1)); err != nil {
				return fmt.Errorf("restore stock: %w", err)
			}
			query = cancelOrderQuery
		}

		tag, err := tx.Exec(ctx, query, id, userID, (*string)(change.Status), change.Notes, change.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	return r.Get(ctx, userID, id)
}

func getOrder(ctx context.Context, db database.DBTX, query string, userID, id uuid.UUID) (Order, error) {
	rows, err := db.Query(ctx, query, id, userID)
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("pgx.CollectExactlyOneRow: %w", err)
	}

	orders := []Order{o}
	if err := loadDetails(ctx, db, orders); err != nil {
		return Order{}, err
	}
	return orders[0], nil
}

// loadDetails fills items and shipping of orders in place.
func loadDetails(ctx context.Context, db database.DBTX, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := lo.Map(orders, func(o Order, _ int) uuid.UUID { return o.ID })

	rows, err := db.Query(ctx, getItemsQuery, ids)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return fmt.Errorf("pgx.CollectRows: %w", err)
	}

	rows, err = db.Query(ctx, getShippingsQuery, ids)
	if err != nil {
		return fmt.Errorf("get shippings: %w", err)
	}
	shippings, err := pgx.CollectRows(rows, scanShipping)
	if err != nil {
		return fmt.Errorf("pgx.CollectRows: %w", err)
	}

	itemsByOrder := lo.GroupBy(items, func(it Item) uuid.UUID { return it.OrderID })
	shippingByOrder := lo.KeyBy(shippings, func(s Shipping) uuid.UUID { return s.OrderID })
	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []Item{}
		}
		if s, ok := shippingByOrder[orders[i].ID]; ok {
			orders[i].Shipping = &s
		}
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (Order, error) {
	var (
		o      Order
		status string
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &status, &o.Subtotal, &o.TaxAmount, &o.ShippingAmount,
		&o.TotalAmount, &o.Currency, &o.Notes, &o.ShippingAddressID, &o.BillingAddressID, &o.CreatedAt, &o.UpdatedAt)
	o.Status = Status(status)
	return o, err
}

func scanItem(row pgx.CollectableRow) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VariantID, &it.Quantity, &it.Price, &it.TotalPrice,
		&it.CreatedAt, &it.ProductName, &it.VariantName)
	return it, err
}

func scanShipping(row pgx.CollectableRow) (Shipping, error) {
	var (
		s      Shipping
		method string
	)
	err := row.Scan(&s.ID, &s.OrderID, &method, &s.Status, &s.TrackingNumber, &s.CreatedAt, &s.UpdatedAt)
	s.Method = ShippingMethod(method)
	return s, err
}

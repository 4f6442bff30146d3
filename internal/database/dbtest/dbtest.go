// Package dbtest starts a throwaway Postgres for repository suites.
package dbtest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/wichananm65/storefront-backend/internal/database"
)

const image = "postgres:16-alpine"

// Start runs a Postgres container, applies the schema and returns a pool.
// The caller closes the pool and terminates the container.
func Start(ctx context.Context) (testcontainers.Container, *pgxpool.Pool, error) {
	ctr, err := postgres.Run(ctx, image,
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("storefront"),
		postgres.WithPassword("storefront"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return ctr, nil, fmt.Errorf("ctr.ConnectionString: %w", err)
	}

	pool, err := database.Open(ctx, connStr)
	if err != nil {
		return ctr, nil, err
	}

	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return ctr, nil, err
	}

	return ctr, pool, nil
}

// Truncate empties every table between tests.
func Truncate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `TRUNCATE shippings, order_items, orders, wishlist_items, cart_items, product_variants, products, categories, addresses, users CASCADE`)
	return err
}

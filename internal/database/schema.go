package database

import (
	"context"
	"fmt"
)

// schema is applied on every start-up, so each statement must be idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS addresses (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		address1 TEXT NOT NULL,
		address2 TEXT,
		city TEXT NOT NULL,
		state TEXT,
		postal_code TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT 'KR',
		is_default BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS addresses_user_idx ON addresses (user_id)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image TEXT,
		parent_id UUID REFERENCES categories(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		sku TEXT UNIQUE,
		price NUMERIC(14,2) NOT NULL,
		stock INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`ALTER TABLE products ADD COLUMN IF NOT EXISTS category_id UUID REFERENCES categories(id)`,
	`CREATE INDEX IF NOT EXISTS products_category_idx ON products (category_id)`,
	`CREATE TABLE IF NOT EXISTS product_variants (
		id UUID PRIMARY KEY,
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		sku TEXT UNIQUE,
		price NUMERIC(14,2) NOT NULL,
		stock INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS product_variants_product_idx ON product_variants (product_id)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		variant_id UUID REFERENCES product_variants(id) ON DELETE CASCADE,
		quantity INT NOT NULL CHECK (quantity > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS wishlist_items (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		variant_id UUID REFERENCES product_variants(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS wishlist_items_entry_idx
		ON wishlist_items (user_id, product_id, variant_id) NULLS NOT DISTINCT`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		order_number TEXT NOT NULL UNIQUE,
		user_id UUID NOT NULL REFERENCES users(id),
		status TEXT NOT NULL,
		subtotal NUMERIC(14,2) NOT NULL,
		tax_amount NUMERIC(14,2) NOT NULL,
		shipping_amount NUMERIC(14,2) NOT NULL,
		total_amount NUMERIC(14,2) NOT NULL,
		currency TEXT NOT NULL,
		notes TEXT,
		shipping_address_id UUID NOT NULL REFERENCES addresses(id),
		billing_address_id UUID NOT NULL REFERENCES addresses(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_created_idx ON orders (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id UUID PRIMARY KEY,
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id UUID NOT NULL REFERENCES products(id),
		variant_id UUID REFERENCES product_variants(id),
		line_no INT NOT NULL DEFAULT 0,
		quantity INT NOT NULL CHECK (quantity > 0),
		price NUMERIC(14,2) NOT NULL,
		total_price NUMERIC(14,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS order_items_order_idx ON order_items (order_id)`,
	`CREATE TABLE IF NOT EXISTS shippings (
		id UUID PRIMARY KEY,
		order_id UUID NOT NULL UNIQUE REFERENCES orders(id) ON DELETE CASCADE,
		method TEXT NOT NULL,
		status TEXT NOT NULL,
		tracking_number TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the tables the service needs when they are missing.
func EnsureSchema(ctx context.Context, db DBTX) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}

package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// schema is applied idempotently on startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		name          VARCHAR(50)  NOT NULL,
		email         VARCHAR(255) NOT NULL UNIQUE,
		password_hash TEXT         NOT NULL,
		role          VARCHAR(10)  NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
		created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          UUID PRIMARY KEY,
		name        VARCHAR(100)  NOT NULL,
		description TEXT          NOT NULL,
		price       NUMERIC(12,2) NOT NULL CHECK (price >= 0),
		category    VARCHAR(32)   NOT NULL,
		stock       INTEGER       NOT NULL DEFAULT 0 CHECK (stock >= 0),
		image       TEXT          NOT NULL,
		rating      DOUBLE PRECISION NOT NULL DEFAULT 0,
		num_reviews INTEGER       NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)`,
	`CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id         UUID PRIMARY KEY,
		product_id UUID    NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		user_id    UUID    NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment    TEXT    NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_product_id ON reviews(product_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_product_user ON reviews(product_id, user_id)`,
	`CREATE TABLE IF NOT EXISTS wishlist_items (
		user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id                UUID PRIMARY KEY,
		user_id           UUID          NOT NULL REFERENCES users(id),
		total_amount      NUMERIC(12,2) NOT NULL CHECK (total_amount >= 0),
		street            TEXT          NOT NULL,
		city              TEXT          NOT NULL,
		state             TEXT          NOT NULL,
		zip_code          TEXT          NOT NULL,
		country           TEXT          NOT NULL,
		status            VARCHAR(16)   NOT NULL DEFAULT 'pending',
		payment_method    VARCHAR(8)    NOT NULL,
		payment_status    VARCHAR(16)   NOT NULL DEFAULT 'pending',
		payment_intent_id TEXT,
		created_at        TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ   NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id         UUID PRIMARY KEY,
		order_id   UUID          NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id UUID          NOT NULL,
		name       VARCHAR(100)  NOT NULL,
		quantity   INTEGER       NOT NULL CHECK (quantity > 0),
		price      NUMERIC(12,2) NOT NULL,
		position   INTEGER       NOT NULL DEFAULT 0
	)`,
	`ALTER TABLE order_items ADD COLUMN IF NOT EXISTS position INTEGER NOT NULL DEFAULT 0`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
}

// Migrate creates the tables the API needs if they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}

	logger.Info().Int("statements", len(schema)).Msg("database schema is up to date")
	return nil
}

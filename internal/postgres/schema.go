package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		name       VARCHAR(100) NOT NULL,
		email      VARCHAR(100) UNIQUE NOT NULL,
		password   VARCHAR(255) NOT NULL,
		phone      VARCHAR(20) NOT NULL DEFAULT '',
		address    TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id    TEXT PRIMARY KEY,
		name  VARCHAR(100) NOT NULL,
		image VARCHAR(500) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id           TEXT PRIMARY KEY,
		name         VARCHAR(255) NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		price        NUMERIC(10,2) NOT NULL,
		old_price    NUMERIC(10,2),
		image        VARCHAR(500) NOT NULL DEFAULT '',
		category_id  TEXT REFERENCES categories(id) ON DELETE SET NULL,
		stock        INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
		rating       NUMERIC(2,1) NOT NULL DEFAULT 0.0,
		review_count INT NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		quantity   INT NOT NULL DEFAULT 1 CHECK (quantity >= 1),
		UNIQUE (user_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		total      NUMERIC(10,2) NOT NULL,
		status     VARCHAR(50) NOT NULL DEFAULT 'PREPARING',
		address    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id         TEXT PRIMARY KEY,
		order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		quantity   INT NOT NULL,
		price      NUMERIC(10,2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id)`,
}

var seedCategories = []struct{ ID, Name, Image string }{
	{"cat-electronics", "Electronics", "https://images.unsplash.com/photo-1498049794561-7780e7231661?w=400"},
	{"cat-clothing", "Clothing", "https://images.unsplash.com/photo-1445205170230-053b83016050?w=400"},
	{"cat-home", "Home & Living", "https://images.unsplash.com/photo-1484101403633-562f891dc89a?w=400"},
	{"cat-sports", "Sports & Outdoor", "https://images.unsplash.com/photo-1461896836934-bd45ba8fcf9b?w=400"},
	{"cat-books", "Books & Hobbies", "https://images.unsplash.com/photo-1512820790803-83ca734da794?w=400"},
	{"cat-beauty", "Beauty", "https://images.unsplash.com/photo-1596462502278-27bfdc403348?w=400"},
}

// Migrate creates the schema and seeds the category list when it is empty.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	var n int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, c := range seedCategories {
		if _, err := pool.Exec(ctx,
			`INSERT INTO categories (id, name, image) VALUES ($1, $2, $3)`,
			c.ID, c.Name, c.Image); err != nil {
			return err
		}
	}
	return nil
}

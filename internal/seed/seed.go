// Package seed inserts demo data for manual testing: a verified admin, a
// couple of categories and a handful of products.
package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type productSeed struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	Category    string
}

// Apply inserts basic seed data. It is idempotent: users and categories
// upsert on their natural keys, products skip rows that already exist.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	if err := ensureAdmin(ctx, pool, "admin@example.com", "Admin123!"); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	categories := map[string]string{
		"apparel": "Apparel",
		"kitchen": "Kitchen",
	}
	categoryIDs := map[string]string{}
	for slug, name := range categories {
		id, err := ensureCategory(ctx, pool, slug, name)
		if err != nil {
			return fmt.Errorf("ensure category %s: %w", slug, err)
		}
		categoryIDs[slug] = id
	}

	products := []productSeed{
		{Name: "Demo T-Shirt", Description: "Soft cotton tee", Price: 19.99, Stock: 50, Category: "apparel"},
		{Name: "Demo Hoodie", Description: "Warm fleece hoodie", Price: 49.90, Stock: 25, Category: "apparel"},
		{Name: "Demo Mug", Description: "Ceramic mug with logo", Price: 12.99, Stock: 100, Category: "kitchen"},
		{Name: "Demo Apron", Description: "Canvas kitchen apron", Price: 24.50, Stock: 30, Category: "kitchen"},
	}
	for _, p := range products {
		if err := insertProduct(ctx, pool, categoryIDs[p.Category], p); err != nil {
			return fmt.Errorf("insert product %s: %w", p.Name, err)
		}
	}

	return nil
}

// ensureAdmin creates a verified admin with no permissions map, which the
// permission checks treat as unrestricted.
func ensureAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO users (email, password_hash, full_name, role, email_verified)
VALUES ($1, $2, 'Demo Admin', 'admin', TRUE)
ON CONFLICT (email) DO NOTHING
`
	_, err = pool.Exec(ctx, q, email, string(hashed))
	return err
}

func ensureCategory(ctx context.Context, pool *pgxpool.Pool, slug, name string) (string, error) {
	const q = `
INSERT INTO categories (name, slug)
VALUES ($1, $2)
ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, name, slug).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func insertProduct(ctx context.Context, pool *pgxpool.Pool, categoryID string, p productSeed) error {
	const q = `
INSERT INTO products (name, description, price, stock, category_id, active)
SELECT $1, $2, $3, $4, $5, TRUE
WHERE NOT EXISTS (SELECT 1 FROM products WHERE name = $1)
`
	_, err := pool.Exec(ctx, q, p.Name, p.Description, p.Price, p.Stock, categoryID)
	return err
}

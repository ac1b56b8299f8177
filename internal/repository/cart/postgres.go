// Package cart persists one cart snapshot per owner as a JSONB document,
// the serialize-on-change contract behind the cart store.
package cart

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	cartstore "storefront-replica/internal/cart"
	"storefront-replica/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) cartstore.Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Get(ctx context.Context, ownerID string) (*domain.Cart, error) {
	const q = `
SELECT owner_id::text, lines, shipping_method, updated_at
FROM carts
WHERE owner_id = $1
`
	var cart domain.Cart
	var lines []byte
	if err := r.pool.QueryRow(ctx, q, ownerID).Scan(&cart.OwnerID, &lines, &cart.ShippingMethod, &cart.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(lines, &cart.Lines); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *postgresRepo) Save(ctx context.Context, cart *domain.Cart) error {
	const q = `
INSERT INTO carts (owner_id, lines, shipping_method, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (owner_id) DO UPDATE
SET lines = EXCLUDED.lines,
    shipping_method = EXCLUDED.shipping_method,
    updated_at = EXCLUDED.updated_at
`
	lines := cart.Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	encoded, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, q, cart.OwnerID, encoded, cart.ShippingMethod, cart.UpdatedAt)
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, ownerID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE owner_id = $1`, ownerID)
	return err
}

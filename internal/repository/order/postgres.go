package order

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-replica/internal/changefeed"
	"storefront-replica/internal/domain"
)

const orderColumns = `id::text, user_id::text, status, subtotal, tax, shipping_cost, total, shipping_method, payment_method, payment_ref, address_id::text, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	feed   *changefeed.Producer
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, feed *changefeed.Producer, logger *log.Logger) Repository {
	return &postgresRepo{pool: pool, feed: feed, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertOrder = `
INSERT INTO orders (user_id, status, subtotal, tax, shipping_cost, total, shipping_method, payment_method, payment_ref, address_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + orderColumns
	created, err := scanOrder(tx.QueryRow(ctx, insertOrder,
		o.UserID, o.Status, o.Subtotal, o.Tax, o.ShippingCost, o.Total,
		o.ShippingMethod, o.PaymentMethod, o.PaymentRef, o.AddressID))
	if err != nil {
		return nil, err
	}

	for _, item := range o.Items {
		tag, err := tx.Exec(ctx, `
UPDATE products SET stock = stock - $2, updated_at = now()
WHERE id = $1 AND stock >= $2
`, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			return nil, fmt.Errorf("insufficient stock for product %s", item.ProductID)
		}

		var it domain.OrderItem
		err = tx.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, name, unit_price, quantity)
VALUES ($1, $2, $3, $4, $5)
RETURNING id::text
`, created.ID, item.ProductID, item.Name, item.UnitPrice, item.Quantity).Scan(&it.ID)
		if err != nil {
			return nil, err
		}
		it.OrderID = created.ID
		it.ProductID = item.ProductID
		it.Name = item.Name
		it.UnitPrice = item.UnitPrice
		it.Quantity = item.Quantity
		created.Items = append(created.Items, it)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.publish(ctx, changefeed.OpInsert, created.ID)
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	items, err := r.itemsFor(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, userID)
}

func (r *postgresRepo) ListAll(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
	if status != nil {
		const q = `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at DESC`
		return r.list(ctx, q, *status)
	}
	const q = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.list(ctx, q)
}

func (r *postgresRepo) SetStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	const q = `
UPDATE orders SET status = $2 WHERE id = $1
RETURNING ` + orderColumns
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	r.publish(ctx, changefeed.OpUpdate, o.ID)
	return o, nil
}

func (r *postgresRepo) CreateRefund(ctx context.Context, req domain.RefundRequest) (*domain.RefundRequest, error) {
	const q = `
INSERT INTO refund_requests (order_id, user_id, reason, status)
VALUES ($1, $2, $3, 'pending')
RETURNING id::text, order_id::text, user_id::text, reason, status, created_at
`
	var out domain.RefundRequest
	err := r.pool.QueryRow(ctx, q, req.OrderID, req.UserID, req.Reason).Scan(
		&out.ID, &out.OrderID, &out.UserID, &out.Reason, &out.Status, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	if r.feed != nil {
		if err := r.feed.Publish(ctx, changefeed.Event{Collection: "refund_requests", Op: changefeed.OpInsert, RowID: out.ID}); err != nil {
			r.logger.Printf("publish refund change: %v", err)
		}
	}
	return &out, nil
}

func (r *postgresRepo) RefundsByUser(ctx context.Context, userID string) ([]domain.RefundRequest, error) {
	const q = `
SELECT id::text, order_id::text, user_id::text, reason, status, created_at
FROM refund_requests
WHERE user_id = $1
ORDER BY created_at DESC
`
	return r.listRefunds(ctx, q, userID)
}

func (r *postgresRepo) ListRefunds(ctx context.Context) ([]domain.RefundRequest, error) {
	const q = `
SELECT id::text, order_id::text, user_id::text, reason, status, created_at
FROM refund_requests
ORDER BY created_at DESC
`
	return r.listRefunds(ctx, q)
}

func (r *postgresRepo) listRefunds(ctx context.Context, q string, args ...any) ([]domain.RefundRequest, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.RefundRequest{}
	for rows.Next() {
		var req domain.RefundRequest
		if err := rows.Scan(&req.ID, &req.OrderID, &req.UserID, &req.Reason, &req.Status, &req.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := r.itemsFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *postgresRepo) itemsFor(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const q = `
SELECT id::text, order_id::text, product_id::text, name, unit_price, quantity
FROM order_items
WHERE order_id = $1
`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.OrderItem{}
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.UnitPrice, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *postgresRepo) publish(ctx context.Context, op changefeed.Op, id string) {
	if r.feed == nil {
		return
	}
	if err := r.feed.Publish(ctx, changefeed.Event{Collection: "orders", Op: op, RowID: id}); err != nil {
		r.logger.Printf("publish orders change: %v", err)
	}
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Status,
		&o.Subtotal,
		&o.Tax,
		&o.ShippingCost,
		&o.Total,
		&o.ShippingMethod,
		&o.PaymentMethod,
		&o.PaymentRef,
		&o.AddressID,
		&o.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}

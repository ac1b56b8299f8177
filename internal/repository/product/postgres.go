package product

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-replica/internal/changefeed"
	"storefront-replica/internal/domain"
)

const productColumns = `id::text, name, description, price, stock, category_id::text, image_url, active, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	feed   *changefeed.Producer
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, feed *changefeed.Producer, logger *log.Logger) Repository {
	return &postgresRepo{pool: pool, feed: feed, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (name, description, price, stock, category_id, image_url, active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + productColumns
	row := r.pool.QueryRow(ctx, q, p.Name, p.Description, p.Price, p.Stock, p.CategoryID, p.ImageURL, p.Active)
	created, err := scanProduct(row)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, changefeed.OpInsert, created.ID)
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	row := r.pool.QueryRow(ctx, q, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List applies filter, sort and pagination, and returns the total count for
// the filter so callers can render pagination.
func (r *postgresRepo) List(ctx context.Context, f domain.ProductFilter) (*domain.ProductPage, error) {
	where := []string{"TRUE"}
	if !f.IncludeInactive {
		where = []string{"active = TRUE"}
	}
	args := []any{}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+strings.ToLower(s)+"%")
		where = append(where, fmt.Sprintf("lower(name) LIKE $%d", len(args)))
	}
	whereSQL := "WHERE " + strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products `+whereSQL, args...).Scan(&total); err != nil {
		return nil, err
	}

	orderSQL := "ORDER BY created_at DESC"
	switch f.SortBy {
	case "price_asc":
		orderSQL = "ORDER BY price ASC"
	case "price_desc":
		orderSQL = "ORDER BY price DESC"
	case "name":
		orderSQL = "ORDER BY lower(name) ASC"
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size < 1 || size > 100 {
		size = 20
	}
	args = append(args, size, (page-1)*size)
	q := fmt.Sprintf("SELECT %s FROM products %s %s LIMIT $%d OFFSET $%d",
		productColumns, whereSQL, orderSQL, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &domain.ProductPage{Items: items, Total: total, Page: page, PageSize: size}, nil
}

func (r *postgresRepo) Update(ctx context.Context, id string, in UpdateInput) (*domain.Product, error) {
	const q = `
UPDATE products
SET name        = COALESCE($2, name),
    description = COALESCE($3, description),
    price       = COALESCE($4, price),
    stock       = COALESCE($5, stock),
    category_id = COALESCE($6, category_id),
    image_url   = COALESCE($7, image_url),
    active      = COALESCE($8, active),
    updated_at  = now()
WHERE id = $1
RETURNING ` + productColumns
	row := r.pool.QueryRow(ctx, q, id, in.Name, in.Description, in.Price, in.Stock, in.CategoryID, in.ImageURL, in.Active)
	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	r.publish(ctx, changefeed.OpUpdate, updated.ID)
	return updated, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.publish(ctx, changefeed.OpDelete, id)
	return nil
}

func (r *postgresRepo) publish(ctx context.Context, op changefeed.Op, id string) {
	if r.feed == nil {
		return
	}
	if err := r.feed.Publish(ctx, changefeed.Event{Collection: "products", Op: op, RowID: id}); err != nil {
		r.logger.Printf("publish products change: %v", err)
	}
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.CategoryID,
		&p.ImageURL,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

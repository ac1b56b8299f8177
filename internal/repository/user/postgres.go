package user

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-replica/internal/changefeed"
	"storefront-replica/internal/domain"
)

const userColumns = `id::text, email, password_hash, full_name, phone, date_of_birth, avatar_url, role, permissions, email_verified, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	feed   *changefeed.Producer
	logger *log.Logger
}

// NewPostgres returns a user repository over pgx. The change feed is
// optional; when present every write publishes a row-change event.
func NewPostgres(pool *pgxpool.Pool, feed *changefeed.Producer, logger *log.Logger) Repository {
	return &postgresRepo{pool: pool, feed: feed, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (email, password_hash, full_name, phone, date_of_birth, avatar_url, role, permissions)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + userColumns
	perms, err := marshalPermissions(u.Permissions)
	if err != nil {
		return nil, err
	}
	role := u.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	row := r.pool.QueryRow(ctx, q, u.Email, u.PasswordHash, u.FullName, u.Phone, u.DateOfBirth, u.AvatarURL, role, perms)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	r.publish(ctx, changefeed.OpInsert, created.ID)
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, q, id)
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.getOne(ctx, q, email)
}

func (r *postgresRepo) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*domain.User, error) {
	const q = `
UPDATE users
SET full_name     = COALESCE($2, full_name),
    phone         = COALESCE($3, phone),
    date_of_birth = COALESCE($4, date_of_birth),
    updated_at    = now()
WHERE id = $1
RETURNING ` + userColumns
	row := r.pool.QueryRow(ctx, q, id, in.FullName, in.Phone, in.DateOfBirth)
	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	r.publish(ctx, changefeed.OpUpdate, updated.ID)
	return updated, nil
}

func (r *postgresRepo) SetAvatarURL(ctx context.Context, id, url string) (*domain.User, error) {
	const q = `
UPDATE users
SET avatar_url = $2, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns
	row := r.pool.QueryRow(ctx, q, id, url)
	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	r.publish(ctx, changefeed.OpUpdate, updated.ID)
	return updated, nil
}

func (r *postgresRepo) SetEmailVerified(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET email_verified = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.publish(ctx, changefeed.OpUpdate, id)
	return nil
}

func (r *postgresRepo) getOne(ctx context.Context, q string, arg any) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, q, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *postgresRepo) publish(ctx context.Context, op changefeed.Op, id string) {
	if r.feed == nil {
		return
	}
	if err := r.feed.Publish(ctx, changefeed.Event{Collection: "users", Op: op, RowID: id}); err != nil {
		r.logger.Printf("publish users change: %v", err)
	}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var perms []byte
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.Phone,
		&u.DateOfBirth,
		&u.AvatarURL,
		&u.Role,
		&perms,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &u.Permissions); err != nil {
			return nil, err
		}
	}
	return &u, nil
}

func marshalPermissions(m domain.PermissionMap) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

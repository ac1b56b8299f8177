package token

import (
	"context"
	"time"
)

// Token is an opaque server-side token row (refresh or confirmation).
type Token struct {
	Token     string
	UserID    string
	Kind      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Repository stores opaque tokens. Create returns domain.ErrAlreadyExists on
// a token collision.
type Repository interface {
	Create(ctx context.Context, t Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	DeleteForUser(ctx context.Context, userID, kind string) error
}

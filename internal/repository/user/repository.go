package user

import (
	"context"

	"storefront-replica/internal/domain"
)

// ProfileUpdate carries the mutable profile fields. Nil pointers leave the
// stored value untouched. Email is deliberately absent: it mirrors the auth
// account and never changes through profile writes.
type ProfileUpdate struct {
	FullName    *string
	Phone       *string
	DateOfBirth *string
}

type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*domain.User, error)
	SetAvatarURL(ctx context.Context, id, url string) (*domain.User, error)
	SetEmailVerified(ctx context.Context, id string) error
}

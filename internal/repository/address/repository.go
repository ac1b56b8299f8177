package address

import (
	"context"

	"storefront-replica/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, a domain.Address) (*domain.Address, error)
	GetByID(ctx context.Context, id string) (*domain.Address, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)
	// Delete is scoped to the owning user so one user cannot remove
	// another's address.
	Delete(ctx context.Context, userID, id string) error
}

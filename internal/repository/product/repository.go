package product

import (
	"context"

	"storefront-replica/internal/domain"
)

// UpdateInput carries the editable product fields. Nil pointers leave the
// stored value untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	CategoryID  *string
	ImageURL    *string
	Active      *bool
}

type Repository interface {
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, f domain.ProductFilter) (*domain.ProductPage, error)
	Update(ctx context.Context, id string, in UpdateInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

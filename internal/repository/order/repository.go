package order

import (
	"context"

	"storefront-replica/internal/domain"
)

type Repository interface {
	// Create inserts the order and its items in one transaction and
	// decrements product stock, failing the whole order when any product
	// lacks stock.
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error)
	SetStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	CreateRefund(ctx context.Context, r domain.RefundRequest) (*domain.RefundRequest, error)
	RefundsByUser(ctx context.Context, userID string) ([]domain.RefundRequest, error)
	ListRefunds(ctx context.Context) ([]domain.RefundRequest, error)
}

// Package order builds orders out of the active cart and tracks them
// through their status transitions.
package order

import (
	"context"
	"errors"
	"log"

	cartstore "storefront-replica/internal/cart"
	"storefront-replica/internal/domain"
	orderrepo "storefront-replica/internal/repository/order"
)

var (
	// ErrEmptyCart is returned when checkout runs against an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidTransition is returned for a disallowed status change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotRefundable is returned when the order's status does not allow a
	// refund request.
	ErrNotRefundable = errors.New("order is not refundable")
)

type cartAccess interface {
	Get(ctx context.Context, ownerID string) (*cartstore.View, error)
	Clear(ctx context.Context, ownerID string) (*cartstore.View, error)
}

type Service struct {
	repo   orderrepo.Repository
	carts  cartAccess
	logger *log.Logger
}

func New(repo orderrepo.Repository, carts cartAccess, logger *log.Logger) *Service {
	return &Service{repo: repo, carts: carts, logger: logger}
}

// CheckoutInput selects payment and delivery for the order built from the
// active cart; the cart itself supplies lines, shipping tier and totals.
type CheckoutInput struct {
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	AddressID     *string              `json:"addressId,omitempty"`
}

// Checkout denominates the current cart into an order and clears the cart.
// The summary is computed once here; the order keeps its own copy of every
// amount so later catalog or tax changes never reprice history.
func (s *Service) Checkout(ctx context.Context, userID string, in CheckoutInput) (*domain.Order, error) {
	switch in.PaymentMethod {
	case domain.PaymentPix, domain.PaymentBoleto, domain.PaymentCard:
	default:
		return nil, errors.New("unsupported payment method")
	}

	view, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(view.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(view.Lines))
	for _, line := range view.Lines {
		items = append(items, domain.OrderItem{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			UnitPrice: line.Product.Price,
			Quantity:  line.Quantity,
		})
	}

	created, err := s.repo.Create(ctx, domain.Order{
		UserID:         userID,
		Status:         domain.OrderPending,
		Subtotal:       view.Summary.Subtotal,
		Tax:            view.Summary.Tax,
		ShippingCost:   view.Summary.Shipping.Cost,
		Total:          view.Summary.Total,
		ShippingMethod: view.Summary.Shipping.Method,
		PaymentMethod:  in.PaymentMethod,
		PaymentRef:     paymentRef(in.PaymentMethod),
		AddressID:      in.AddressID,
		Items:          items,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.carts.Clear(ctx, userID); err != nil {
		// the order exists; a stale cart is recoverable
		s.logger.Printf("clear cart after checkout %s: %v", created.ID, err)
	}
	return created, nil
}

// ListMine returns the user's orders, newest first.
func (s *Service) ListMine(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns an order only to its owner.
func (s *Service) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// ListAll returns every order, optionally filtered by status. Admin only;
// the HTTP layer enforces that.
func (s *Service) ListAll(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
	return s.repo.ListAll(ctx, status)
}

// SetStatus applies an admin status change after validating the transition.
func (s *Service) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(o.Status, status) {
		return nil, ErrInvalidTransition
	}
	return s.repo.SetStatus(ctx, orderID, status)
}

// AllRefunds returns every refund request for the admin dashboard.
func (s *Service) AllRefunds(ctx context.Context) ([]domain.RefundRequest, error) {
	return s.repo.ListRefunds(ctx)
}

// RequestRefund opens a refund request for a paid or delivered order.
func (s *Service) RequestRefund(ctx context.Context, userID, orderID, reason string) (*domain.RefundRequest, error) {
	o, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.OrderPaid && o.Status != domain.OrderDelivered {
		return nil, ErrNotRefundable
	}
	return s.repo.CreateRefund(ctx, domain.RefundRequest{
		OrderID: orderID,
		UserID:  userID,
		Reason:  reason,
	})
}

package cart

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"storefront-replica/internal/domain"
	"storefront-replica/internal/pricing"
)

// Repository persists one cart snapshot per owner. Save overwrites the
// previous snapshot (serialize-on-change); Get returns domain.ErrNotFound
// for owners without a cart.
type Repository interface {
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, ownerID string) error
}

// View is what callers render: the lines plus the derived summary. The
// summary is recomputed on every read and mutation, never trusted from
// storage.
type View struct {
	Lines          []domain.CartLine     `json:"lines"`
	ShippingMethod domain.ShippingMethod `json:"shippingMethod"`
	Summary        pricing.Summary       `json:"summary"`
}

// Service owns all cart mutations. Lines are keyed by product id: adding an
// existing product increments its quantity, and quantities at or below zero
// delete the line.
type Service struct {
	repo   Repository
	calc   pricing.Calculator
	logger *log.Logger
}

func New(repo Repository, calc pricing.Calculator, logger *log.Logger) *Service {
	return &Service{repo: repo, calc: calc, logger: logger}
}

// Get returns the owner's cart view, an empty cart when none is stored.
func (s *Service) Get(ctx context.Context, ownerID string) (*View, error) {
	cart, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.view(cart), nil
}

// AddItem appends a line with quantity 1, or increments the existing line
// for the same product.
func (s *Service) AddItem(ctx context.Context, ownerID string, product domain.ProductRef) (*View, error) {
	if strings.TrimSpace(product.ID) == "" {
		return nil, errors.New("product id required")
	}
	return s.mutate(ctx, ownerID, func(cart *domain.Cart) {
		for i := range cart.Lines {
			if cart.Lines[i].Product.ID == product.ID {
				cart.Lines[i].Quantity++
				return
			}
		}
		cart.Lines = append(cart.Lines, domain.CartLine{Product: product, Quantity: 1})
	})
}

// UpdateQuantity sets a line's quantity to exactly the given value. A value
// of zero or less removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, ownerID, productID string, quantity int) (*View, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, errors.New("product id required")
	}
	if quantity <= 0 {
		return s.RemoveItem(ctx, ownerID, productID)
	}
	return s.mutate(ctx, ownerID, func(cart *domain.Cart) {
		for i := range cart.Lines {
			if cart.Lines[i].Product.ID == productID {
				cart.Lines[i].Quantity = quantity
				return
			}
		}
	})
}

// RemoveItem deletes the product's line. Removing an absent product leaves
// the cart unchanged.
func (s *Service) RemoveItem(ctx context.Context, ownerID, productID string) (*View, error) {
	return s.mutate(ctx, ownerID, func(cart *domain.Cart) {
		kept := cart.Lines[:0]
		for _, line := range cart.Lines {
			if line.Product.ID != productID {
				kept = append(kept, line)
			}
		}
		cart.Lines = kept
	})
}

// Clear empties all lines but keeps the selected shipping method.
func (s *Service) Clear(ctx context.Context, ownerID string) (*View, error) {
	return s.mutate(ctx, ownerID, func(cart *domain.Cart) {
		cart.Lines = nil
	})
}

// SetShipping selects one of the fixed shipping tiers.
func (s *Service) SetShipping(ctx context.Context, ownerID string, method domain.ShippingMethod) (*View, error) {
	if _, ok := domain.ShippingTierByMethod(method); !ok {
		return nil, errors.New("unknown shipping method")
	}
	return s.mutate(ctx, ownerID, func(cart *domain.Cart) {
		cart.ShippingMethod = method
	})
}

// ItemQuantity returns the quantity of the product's line, 0 when absent.
func (s *Service) ItemQuantity(ctx context.Context, ownerID, productID string) (int, error) {
	cart, err := s.load(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	for _, line := range cart.Lines {
		if line.Product.ID == productID {
			return line.Quantity, nil
		}
	}
	return 0, nil
}

func (s *Service) mutate(ctx context.Context, ownerID string, fn func(*domain.Cart)) (*View, error) {
	cart, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	fn(cart)
	cart.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(cart), nil
}

func (s *Service) load(ctx context.Context, ownerID string) (*domain.Cart, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, errors.New("owner id required")
	}
	cart, err := s.repo.Get(ctx, ownerID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Cart{OwnerID: ownerID, ShippingMethod: domain.DefaultShippingTier().Method}, nil
	}
	if err != nil {
		return nil, err
	}
	if cart.ShippingMethod == "" {
		cart.ShippingMethod = domain.DefaultShippingTier().Method
	}
	return cart, nil
}

func (s *Service) view(cart *domain.Cart) *View {
	tier, ok := domain.ShippingTierByMethod(cart.ShippingMethod)
	if !ok {
		tier = domain.DefaultShippingTier()
	}
	return &View{
		Lines:          cart.Lines,
		ShippingMethod: tier.Method,
		Summary:        s.calc.OrderSummary(cart.Lines, tier),
	}
}

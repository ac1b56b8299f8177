// Package pricing computes the priced breakdown of a cart: subtotal, tax,
// shipping and total. All functions are pure; monetary values are decimal
// currency units in float64, rounded only when rendered.
package pricing

import "storefront-replica/internal/domain"

// DefaultTaxRate is the flat tax fraction applied to the subtotal when no
// rate is configured. There is no jurisdiction logic.
const DefaultTaxRate = 0.08

// Summary is the derived breakdown of a cart against a shipping tier. It is
// recomputed on every cart mutation and never persisted as authoritative
// state (orders denormalize their own copy at creation time).
type Summary struct {
	Subtotal  float64             `json:"subtotal"`
	Shipping  domain.ShippingTier `json:"shipping"`
	Tax       float64             `json:"tax"`
	Total     float64             `json:"total"`
	ItemCount int                 `json:"itemCount"`
}

// Calculator folds cart lines into a Summary using a fixed tax rate.
type Calculator struct {
	taxRate float64
}

// NewCalculator returns a Calculator. A zero or negative rate falls back to
// DefaultTaxRate.
func NewCalculator(taxRate float64) Calculator {
	if taxRate <= 0 {
		taxRate = DefaultTaxRate
	}
	return Calculator{taxRate: taxRate}
}

// TaxRate returns the configured tax fraction.
func (c Calculator) TaxRate() float64 {
	return c.taxRate
}

// OrderSummary prices the given lines against a shipping tier. Lines may be
// empty; quantities are assumed already validated by the cart store and are
// not re-checked here.
func (c Calculator) OrderSummary(lines []domain.CartLine, shipping domain.ShippingTier) Summary {
	var subtotal float64
	var count int
	for _, line := range lines {
		subtotal += line.Product.Price * float64(line.Quantity)
		count += line.Quantity
	}
	tax := subtotal * c.taxRate
	return Summary{
		Subtotal:  subtotal,
		Shipping:  shipping,
		Tax:       tax,
		Total:     subtotal + tax + shipping.Cost,
		ItemCount: count,
	}
}

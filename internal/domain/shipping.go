package domain

// ShippingMethod identifies one of the fixed delivery options.
type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
	ShippingSameDay  ShippingMethod = "same-day"
)

// ShippingTier is one entry of the fixed shipping catalog. Tiers are
// selected by checkout, never created or edited.
type ShippingTier struct {
	Method        ShippingMethod `json:"method"`
	Cost          float64        `json:"cost"`
	EstimatedDays int            `json:"estimatedDays"`
	Description   string         `json:"description"`
}

var shippingCatalog = []ShippingTier{
	{Method: ShippingStandard, Cost: 9.99, EstimatedDays: 7, Description: "Standard delivery"},
	{Method: ShippingExpress, Cost: 19.99, EstimatedDays: 2, Description: "Express delivery"},
	{Method: ShippingSameDay, Cost: 29.99, EstimatedDays: 0, Description: "Same-day delivery"},
}

// ShippingTiers returns the full catalog in display order.
func ShippingTiers() []ShippingTier {
	out := make([]ShippingTier, len(shippingCatalog))
	copy(out, shippingCatalog)
	return out
}

// ShippingTierByMethod looks a tier up by method name.
func ShippingTierByMethod(m ShippingMethod) (ShippingTier, bool) {
	for _, t := range shippingCatalog {
		if t.Method == m {
			return t, true
		}
	}
	return ShippingTier{}, false
}

// DefaultShippingTier is the tier applied before checkout picks one.
func DefaultShippingTier() ShippingTier {
	return shippingCatalog[0]
}

package domain

import "time"

// ProductRef is the snapshot of a product captured on a cart line. Pricing
// uses the captured price, not the live catalog row.
type ProductRef struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

// CartLine pairs a product snapshot with a quantity. Mutation operations on
// the cart store keep quantity >= 1; a quantity reaching zero deletes the
// line instead.
type CartLine struct {
	Product  ProductRef `json:"product"`
	Quantity int        `json:"quantity"`
}

// Cart is the persisted snapshot of one owner's cart.
type Cart struct {
	OwnerID        string         `json:"ownerId"`
	Lines          []CartLine     `json:"lines"`
	ShippingMethod ShippingMethod `json:"shippingMethod"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

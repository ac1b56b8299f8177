package domain

import "time"

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	CategoryID  *string   `json:"categoryId,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductFilter drives listing queries. Zero values mean "no constraint".
// Inactive products stay hidden unless IncludeInactive is set; only the
// admin surface sets it.
type ProductFilter struct {
	CategoryID      *string
	Search          string
	SortBy          string
	Page            int
	PageSize        int
	IncludeInactive bool
}

type ProductPage struct {
	Items    []Product `json:"items"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

package domain

import "time"

// OrderStatus tracks an order through fulfilment.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderPaid       OrderStatus = "paid"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderPaid, OrderCancelled},
	OrderPaid:       {OrderProcessing, OrderCancelled, OrderRefunded},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
	OrderDelivered:  {OrderRefunded},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentMethod names the checkout payment option. All methods are mocked:
// a reference code is generated but no gateway is called.
type PaymentMethod string

const (
	PaymentPix    PaymentMethod = "pix"
	PaymentBoleto PaymentMethod = "boleto"
	PaymentCard   PaymentMethod = "card"
)

type Order struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	Status         OrderStatus    `json:"status"`
	Subtotal       float64        `json:"subtotal"`
	Tax            float64        `json:"tax"`
	ShippingCost   float64        `json:"shippingCost"`
	Total          float64        `json:"total"`
	ShippingMethod ShippingMethod `json:"shippingMethod"`
	PaymentMethod  PaymentMethod  `json:"paymentMethod"`
	PaymentRef     string         `json:"paymentRef,omitempty"`
	AddressID      *string        `json:"addressId,omitempty"`
	Items          []OrderItem    `json:"items,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// OrderItem denormalizes the product name and unit price at purchase time.
type OrderItem struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"orderId"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

type RefundRequest struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is the persisted record of a submitted cart. Its identity is assigned
// by the order store; after submission it is the authoritative record and the
// cart is cleared.
type Order struct {
	ID          uuid.UUID   `json:"id"`
	TotalAmount int64       `json:"total_amount"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// OrderItem is one cart line frozen at submission time. Never updated.
type OrderItem struct {
	OrderID   uuid.UUID `json:"order_id"`
	ModelID   string    `json:"model_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	Size      string    `json:"size_value"`
}

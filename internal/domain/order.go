package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
)

const PaymentMethodCard = "card"

type CheckoutForm struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Pincode       string `json:"pincode"`
	PaymentMethod string `json:"payment_method"`
}

type OrderSummary struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

type Order struct {
	ID        uuid.UUID    `json:"id"`
	SessionID string       `json:"session_id"`
	UserID    string       `json:"user_id,omitempty"`
	Items     []CartItem   `json:"items"`
	Summary   OrderSummary `json:"summary"`
	Contact   CheckoutForm `json:"contact"`
	Status    OrderStatus  `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// OutboxEvent is an order event waiting to be published.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

const EventTypeOrderPlaced = "order.placed"

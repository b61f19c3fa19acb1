package event

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types carried in the envelope.
const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
	TypeOrderCancelled     = "order.cancelled"
	TypeInventoryLowStock  = "inventory.low_stock"
	TypeInventoryOutStock  = "inventory.out_of_stock"
)

type OrderCreated struct {
	OrderID    string          `json:"order_id"`
	CustomerID string          `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
}

func (OrderCreated) EventType() string { return TypeOrderCreated }
func (e OrderCreated) Key() string     { return e.OrderID }

type OrderStatusChanged struct {
	OrderID string `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

func (OrderStatusChanged) EventType() string { return TypeOrderStatusChanged }
func (e OrderStatusChanged) Key() string     { return e.OrderID }

type OrderCancelled struct {
	OrderID string `json:"order_id"`
}

func (OrderCancelled) EventType() string { return TypeOrderCancelled }
func (e OrderCancelled) Key() string     { return e.OrderID }

type InventoryLowStock struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

func (InventoryLowStock) EventType() string { return TypeInventoryLowStock }
func (e InventoryLowStock) Key() string     { return e.ProductID }

type InventoryOutOfStock struct {
	ProductID string `json:"product_id"`
}

func (InventoryOutOfStock) EventType() string { return TypeInventoryOutStock }
func (e InventoryOutOfStock) Key() string     { return e.ProductID }

// Event is any payload the engine publishes to the notification side.
type Event interface {
	EventType() string
	Key() string
}

// Envelope is the wire shape: payload plus type tag and timestamp.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

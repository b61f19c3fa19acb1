package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusRefunded   Status = "REFUNDED"
)

// PaymentStatus tracks payment independently of fulfillment.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Address is a structured snapshot copied onto the order at creation
// time. It is stored as a JSON blob, never re-read live from the
// customer, so historical orders stay accurate.
type Address struct {
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Order struct {
	ID             string
	OrderNumber    string
	CustomerID     string
	Status         Status
	PaymentStatus  PaymentStatus
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
	Tax            decimal.Decimal
	Shipping       decimal.Decimal
	Total          decimal.Decimal
	DiscountCode   *string
	ShippingAddr   Address
	BillingAddr    Address
	TrackingNumber *string
	CompletedAt    *time.Time
	Items          []Item
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Item is a frozen price snapshot of one line at order time, decoupled
// from the live product so catalog changes never rewrite history.
type Item struct {
	ID        string
	OrderID   string
	ProductID string
	VariantID *string
	Name      string
	SKU       string
	Price     decimal.Decimal
	Quantity  int
	Total     decimal.Decimal
}

// StatusHistory is one append-only audit row per transition.
type StatusHistory struct {
	ID        string
	OrderID   string
	Status    Status
	Note      string
	Actor     string
	CreatedAt time.Time
}

// Line is a requested product/quantity pair before pricing.
type Line struct {
	ProductID string
	VariantID *string
	Quantity  int
}

// ListFilter narrows an order listing.
type ListFilter struct {
	CustomerID *string
	Status     *Status
}

package customer

import "github.com/shopspring/decimal"

type Customer struct {
	ID            string
	Email         string
	IsActive      bool
	TotalOrders   int
	TotalSpent    decimal.Decimal
	LoyaltyPoints int64
}

// StatsDelta is one order's contribution to a customer's lifetime stats.
type StatsDelta struct {
	Orders int
	Spent  decimal.Decimal
	Points int64
}

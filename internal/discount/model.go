package discount

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypePercentage   Type = "PERCENTAGE"
	TypeFixedAmount  Type = "FIXED_AMOUNT"
	TypeFreeShipping Type = "FREE_SHIPPING"
)

type Discount struct {
	ID            string
	Code          string
	Type          Type
	Value         decimal.Decimal
	MinOrderValue *decimal.Decimal
	MaxDiscount   *decimal.Decimal
	UsageLimit    *int
	UsageCount    int
	StartDate     time.Time
	EndDate       time.Time
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Reason explains why a code failed validation.
type Reason string

const (
	ReasonNotFound      Reason = "NOT_FOUND"
	ReasonInactive      Reason = "INACTIVE"
	ReasonExpired       Reason = "EXPIRED"
	ReasonUsageExceeded Reason = "USAGE_EXCEEDED"
	ReasonBelowMinimum  Reason = "BELOW_MINIMUM"
)

// Validation is the outcome of checking a code against an order total.
// Amount and Type are only meaningful when Valid is true.
type Validation struct {
	Valid  bool
	Amount decimal.Decimal
	Type   Type
	Reason Reason
}

// NormalizeCode upper-cases and trims a customer-supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

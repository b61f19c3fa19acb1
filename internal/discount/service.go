package discount

import (
	"context"
	"errors"
	"time"

	"lokapasar-be/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service validates discount codes against an order total and computes
// the amount they are worth. Validation is a pure read; consumption
// happens separately, inside the transaction that persists the order.
type Service interface {
	Validate(ctx context.Context, code string, orderTotal decimal.Decimal) (*Validation, error)
	Create(ctx context.Context, d *Discount) (*Discount, error)
	List(ctx context.Context, limit, offset int32) ([]*Discount, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

// Validate checks eligibility rules in order, short-circuiting on the
// first failure: exists, active, date window, usage cap, minimum order.
func (s *service) Validate(ctx context.Context, code string, orderTotal decimal.Decimal) (*Validation, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Validate"),
		zap.String("code", NormalizeCode(code)),
	)

	d, err := s.repo.GetByCode(ctx, code)
	if errors.Is(err, ErrDiscountNotFound) {
		return &Validation{Reason: ReasonNotFound}, nil
	}
	if err != nil {
		log.Error("failed to load discount", zap.Error(err))
		return nil, err
	}

	if !d.IsActive {
		return &Validation{Reason: ReasonInactive}, nil
	}

	now := s.now()
	if now.Before(d.StartDate) || now.After(d.EndDate) {
		return &Validation{Reason: ReasonExpired}, nil
	}

	if d.UsageLimit != nil && d.UsageCount >= *d.UsageLimit {
		return &Validation{Reason: ReasonUsageExceeded}, nil
	}

	if d.MinOrderValue != nil && orderTotal.LessThan(*d.MinOrderValue) {
		return &Validation{Reason: ReasonBelowMinimum}, nil
	}

	amount := d.ComputeAmount(orderTotal)

	log.Debug("discount valid", zap.String("amount", amount.String()))

	return &Validation{Valid: true, Amount: amount, Type: d.Type}, nil
}

// ComputeAmount returns the value of an (already eligible) discount for
// the given order total. FREE_SHIPPING returns the raw value; the pricing
// calculator caps it at the actual shipping fee.
func (d *Discount) ComputeAmount(orderTotal decimal.Decimal) decimal.Decimal {
	switch d.Type {
	case TypePercentage:
		amount := orderTotal.Mul(d.Value).Div(decimal.NewFromInt(100))
		if d.MaxDiscount != nil && amount.GreaterThan(*d.MaxDiscount) {
			amount = *d.MaxDiscount
		}
		return amount
	case TypeFixedAmount:
		if d.Value.GreaterThan(orderTotal) {
			return orderTotal
		}
		return d.Value
	case TypeFreeShipping:
		return d.Value
	}
	return decimal.Zero
}

func (s *service) Create(ctx context.Context, d *Discount) (*Discount, error) {
	if d.Code == "" {
		return nil, errors.New("discount code is required")
	}
	if d.Value.IsNegative() || d.Value.IsZero() {
		return nil, errors.New("discount value must be positive")
	}
	if d.EndDate.Before(d.StartDate) {
		return nil, errors.New("end date before start date")
	}

	switch d.Type {
	case TypePercentage, TypeFixedAmount, TypeFreeShipping:
	default:
		return nil, errors.New("unknown discount type")
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	return d, nil
}

func (s *service) List(ctx context.Context, limit, offset int32) ([]*Discount, error) {
	return s.repo.List(ctx, limit, offset)
}

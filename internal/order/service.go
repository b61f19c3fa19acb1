package order

import (
	"context"

	"lokapasar-be/internal/cache"
	"lokapasar-be/internal/catalog"
	"lokapasar-be/internal/customer"
	"lokapasar-be/internal/discount"
	"lokapasar-be/internal/event"
	"lokapasar-be/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateParams is the use-case input for placing an order. Tax and
// shipping are opaque caller-supplied amounts; the engine computes
// neither.
type CreateParams struct {
	CustomerID   string
	Lines        []Line
	DiscountCode *string
	Tax          decimal.Decimal
	Shipping     decimal.Decimal
	ShippingAddr Address
	BillingAddr  Address
}

type Service interface {
	Create(ctx context.Context, params CreateParams) (*Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*Order, error)
	List(ctx context.Context, filter ListFilter, limit, offset int32) ([]*Order, error)
	UpdateStatus(ctx context.Context, orderID string, to Status, note, actor string) (*Order, error)
	Cancel(ctx context.Context, orderID, reason, actor string) (*Order, error)
	SetTracking(ctx context.Context, orderID, trackingNumber string) error
}

type service struct {
	repo         Repository
	catalogRepo  catalog.Repository
	customerRepo customer.Repository
	discountSvc  discount.Service
	cache        cache.Invalidator
	publisher    event.Publisher
}

func NewService(
	repo Repository,
	catalogRepo catalog.Repository,
	customerRepo customer.Repository,
	discountSvc discount.Service,
	cacheInv cache.Invalidator,
	publisher event.Publisher,
) Service {
	return &service{
		repo:         repo,
		catalogRepo:  catalogRepo,
		customerRepo: customerRepo,
		discountSvc:  discountSvc,
		cache:        cacheInv,
		publisher:    publisher,
	}
}

func (s *service) Create(ctx context.Context, params CreateParams) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
		zap.String("customer_id", params.CustomerID),
		zap.Int("line_count", len(params.Lines)),
	)

	if err := validateCreate(params); err != nil {
		return nil, err
	}

	cust, err := s.customerRepo.GetActive(ctx, params.CustomerID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(params.Lines))
	for _, line := range params.Lines {
		ids = append(ids, line.ProductID)
	}

	products, err := s.catalogRepo.GetProductsByIDs(ctx, ids)
	if err != nil {
		log.Error("failed to load products", zap.Error(err))
		return nil, err
	}

	// First pass without the discount: the validator needs the subtotal.
	base, err := CalculatePricing(PricingInput{
		Lines:    params.Lines,
		Products: products,
		Tax:      params.Tax,
		Shipping: params.Shipping,
	})
	if err != nil {
		return nil, err
	}

	pricing := base
	var appliedCode *string

	if params.DiscountCode != nil && *params.DiscountCode != "" {
		code := discount.NormalizeCode(*params.DiscountCode)

		validation, err := s.discountSvc.Validate(ctx, code, base.Subtotal)
		if err != nil {
			return nil, err
		}
		if !validation.Valid {
			return nil, &discount.InvalidError{Code: code, Reason: validation.Reason}
		}

		pricing, err = CalculatePricing(PricingInput{
			Lines:    params.Lines,
			Products: products,
			Discount: validation,
			Tax:      params.Tax,
			Shipping: params.Shipping,
		})
		if err != nil {
			return nil, err
		}

		appliedCode = &code
	}

	o := &Order{
		CustomerID:    cust.ID,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		Subtotal:      pricing.Subtotal,
		Discount:      pricing.Discount,
		Tax:           pricing.Tax,
		Shipping:      pricing.Shipping,
		Total:         pricing.Total,
		DiscountCode:  appliedCode,
		ShippingAddr:  params.ShippingAddr,
		BillingAddr:   params.BillingAddr,
		Items:         pricing.Items,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error("failed to create order", zap.Error(err))
		return nil, err
	}

	s.cache.InvalidateOrder(ctx, o.ID, o.OrderNumber, o.CustomerID)
	_ = s.publisher.Publish(ctx, event.OrderCreated{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Total:      o.Total,
	})

	log.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("total", o.Total.String()),
	)

	return o, nil
}

func (s *service) Get(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return s.repo.GetByNumber(ctx, orderNumber)
}

func (s *service) List(ctx context.Context, filter ListFilter, limit, offset int32) ([]*Order, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *service) UpdateStatus(ctx context.Context, orderID string, to Status, note, actor string) (*Order, error) {
	if !ValidStatus(to) {
		return nil, &ValidationError{Field: "status", Detail: "unknown status " + string(to)}
	}

	result, err := s.repo.Transition(ctx, orderID, to, note, actor)
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, result)

	return result.Order, nil
}

func (s *service) Cancel(ctx context.Context, orderID, reason, actor string) (*Order, error) {
	if reason == "" {
		reason = "cancelled"
	}
	return s.UpdateStatus(ctx, orderID, StatusCancelled, reason, actor)
}

func (s *service) SetTracking(ctx context.Context, orderID, trackingNumber string) error {
	if trackingNumber == "" {
		return &ValidationError{Field: "tracking_number", Detail: "must not be empty"}
	}

	if err := s.repo.SetTracking(ctx, orderID, trackingNumber); err != nil {
		return err
	}

	o, err := s.repo.GetByID(ctx, orderID)
	if err == nil {
		s.cache.InvalidateOrder(ctx, o.ID, o.OrderNumber, o.CustomerID)
	}

	return nil
}

// afterTransition runs the post-commit collaborator hooks: cache keys are
// only dropped once the transaction is durable, and events follow.
func (s *service) afterTransition(ctx context.Context, result *TransitionResult) {
	o := result.Order

	s.cache.InvalidateOrder(ctx, o.ID, o.OrderNumber, o.CustomerID)
	if len(result.ProductIDs) > 0 {
		s.cache.InvalidateProducts(ctx, result.ProductIDs)
	}

	events := []event.Event{
		event.OrderStatusChanged{
			OrderID: o.ID,
			From:    string(result.From),
			To:      string(result.To),
		},
	}
	if result.To == StatusCancelled {
		events = append(events, event.OrderCancelled{OrderID: o.ID})
	}
	for _, signal := range result.StockSignals {
		if signal.Result.LowStock {
			events = append(events, event.InventoryLowStock{
				ProductID: signal.ProductID,
				Stock:     signal.Result.After,
			})
		}
		if signal.Result.OutOfStock {
			events = append(events, event.InventoryOutOfStock{ProductID: signal.ProductID})
		}
	}

	_ = s.publisher.Publish(ctx, events...)
}

func validateCreate(params CreateParams) error {
	if params.CustomerID == "" {
		return &ValidationError{Field: "customer_id", Detail: "must not be empty"}
	}
	if len(params.Lines) == 0 {
		return ErrEmptyOrder
	}
	for _, line := range params.Lines {
		if line.ProductID == "" {
			return &ValidationError{Field: "product_id", Detail: "must not be empty"}
		}
		if line.Quantity <= 0 {
			return &ValidationError{Field: "quantity", Detail: "must be greater than zero"}
		}
	}
	if params.Tax.IsNegative() || params.Shipping.IsNegative() {
		return &ValidationError{Field: "tax/shipping", Detail: "must not be negative"}
	}
	if params.ShippingAddr.Line1 == "" || params.ShippingAddr.City == "" {
		return &ValidationError{Field: "shipping_address", Detail: "incomplete address"}
	}
	return nil
}

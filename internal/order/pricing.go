package order

import (
	"lokapasar-be/internal/catalog"
	"lokapasar-be/internal/discount"
	"lokapasar-be/internal/inventory"

	"github.com/shopspring/decimal"
)

// PricingInput is everything the calculator needs: the requested lines, a
// catalog snapshot keyed by product id, the validated discount (nil when
// no code was supplied), and the caller-supplied tax and shipping, which
// are opaque inputs here.
type PricingInput struct {
	Lines    []Line
	Products map[string]*catalog.Product
	Discount *discount.Validation
	Tax      decimal.Decimal
	Shipping decimal.Decimal
}

// Pricing is the calculator's output. Items are the frozen snapshots that
// get persisted as order items.
type Pricing struct {
	Items    []Item
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// CalculatePricing turns requested lines plus a catalog snapshot into
// frozen line snapshots and totals. It is a pure function: it reads the
// snapshot it is given and touches nothing live. Stock checks here are
// informational; the CONFIRMED transition re-validates under lock.
func CalculatePricing(input PricingInput) (*Pricing, error) {
	if len(input.Lines) == 0 {
		return nil, ErrEmptyOrder
	}

	items := make([]Item, 0, len(input.Lines))
	subtotal := decimal.Zero

	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, &ValidationError{Field: "quantity", Detail: "must be greater than zero"}
		}

		product, ok := input.Products[line.ProductID]
		if !ok {
			return nil, ErrProductNotFound
		}
		if !product.IsActive {
			return nil, ErrProductInactive
		}
		if product.Stock < line.Quantity {
			return nil, &inventory.InsufficientStockError{
				ProductID: product.ID,
				Requested: line.Quantity,
				Available: product.Stock,
			}
		}

		price := product.EffectivePrice()
		lineTotal := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		items = append(items, Item{
			ProductID: product.ID,
			VariantID: line.VariantID,
			Name:      product.Name,
			SKU:       product.SKU,
			Price:     price,
			Quantity:  line.Quantity,
			Total:     lineTotal,
		})
	}

	discountAmount := decimal.Zero
	if input.Discount != nil && input.Discount.Valid {
		discountAmount = input.Discount.Amount
		if input.Discount.Type == discount.TypeFreeShipping && discountAmount.GreaterThan(input.Shipping) {
			// A shipping waiver is worth at most the shipping fee.
			discountAmount = input.Shipping
		}
		if discountAmount.GreaterThan(subtotal) {
			discountAmount = subtotal
		}
	}

	total := subtotal.Sub(discountAmount).Add(input.Tax).Add(input.Shipping)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return &Pricing{
		Items:    items,
		Subtotal: subtotal,
		Discount: discountAmount,
		Tax:      input.Tax,
		Shipping: input.Shipping,
		Total:    total,
	}, nil
}

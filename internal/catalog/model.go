package catalog

import "github.com/shopspring/decimal"

// Attribute is one typed key/value entry on a product, e.g.
// {Key: "weight", Label: "Weight (g)", Value: "250"}.
type Attribute struct {
	Key   string  `json:"key"`
	Label *string `json:"label,omitempty"`
	Value string  `json:"value"`
}

type Product struct {
	ID                string
	SKU               string
	Name              string
	BasePrice         decimal.Decimal
	SalePrice         *decimal.Decimal
	Stock             int
	LowStockThreshold int
	IsActive          bool
	Attributes        []Attribute
}

// EffectivePrice is the unit price actually charged: the sale price when
// present and lower than the base price, otherwise the base price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil && p.SalePrice.LessThan(p.BasePrice) {
		return *p.SalePrice
	}
	return p.BasePrice
}

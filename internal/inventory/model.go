package inventory

import "time"

// MovementType classifies a stock mutation and fixes its sign:
// PURCHASE and RETURN add stock, SALE and DAMAGE remove it,
// ADJUSTMENT applies the signed quantity as given.
type MovementType string

const (
	TypePurchase   MovementType = "PURCHASE"
	TypeSale       MovementType = "SALE"
	TypeReturn     MovementType = "RETURN"
	TypeAdjustment MovementType = "ADJUSTMENT"
	TypeDamage     MovementType = "DAMAGE"
)

// Delta converts a movement quantity into the signed stock change.
func (t MovementType) Delta(quantity int) int {
	switch t {
	case TypePurchase, TypeReturn:
		if quantity < 0 {
			return -quantity
		}
		return quantity
	case TypeSale, TypeDamage:
		if quantity < 0 {
			return quantity
		}
		return -quantity
	case TypeAdjustment:
		return quantity
	}
	return 0
}

func (t MovementType) Valid() bool {
	switch t {
	case TypePurchase, TypeSale, TypeReturn, TypeAdjustment, TypeDamage:
		return true
	}
	return false
}

// Movement is one append-only ledger row. Quantity is the magnitude of
// the change; Before and After record the product's stock around it.
type Movement struct {
	ID        string
	ProductID string
	Type      MovementType
	Quantity  int
	Before    int
	After     int
	Note      string
	Actor     string
	CreatedAt time.Time
}

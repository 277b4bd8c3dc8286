package domain

import "github.com/shopspring/decimal"

// Order is created by checkout and is immutable afterwards. It owns a frozen copy
// of the cart lines it was placed with.
type Order struct {
	ID             int64           `json:"id"`
	Total          decimal.Decimal `json:"total"`
	DireccionEnvio string          `json:"direccionEnvio"`
	Detalles       []CartLine      `json:"detalles"`
}

// Freeze returns a deep copy of o, so later changes to the source slice cannot
// leak into the order.
func (o Order) Freeze() Order {
	lines := make([]CartLine, len(o.Detalles))
	copy(lines, o.Detalles)
	o.Detalles = lines
	return o
}

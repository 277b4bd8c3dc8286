package domain

import "github.com/shopspring/decimal"

// ProductRef is the product as seen from a cart line.
type ProductRef struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

// CartLine holds a price snapshot taken when the product was added. PrecioUnitario
// is never re-derived from the live catalog price.
type CartLine struct {
	ID             int64           `json:"id"`
	Producto       ProductRef      `json:"producto"`
	PrecioUnitario decimal.Decimal `json:"precioUnitario"`
	Cantidad       int             `json:"cantidad"`
}

// Cart is the server-computed cart. Items is never nil once published and Total is
// never negative.
type Cart struct {
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func EmptyCart() Cart {
	return Cart{Items: []CartLine{}, Total: decimal.Zero}
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Clone returns a copy that shares no line storage with c.
func (c Cart) Clone() Cart {
	items := make([]CartLine, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items, Total: c.Total}
}

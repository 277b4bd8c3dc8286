// Package pricing holds the pure money helpers shared by the cart and checkout
// views. Nothing in here keeps state.
package pricing

import (
	"github.com/levelup/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// DiscountEpsilon absorbs rounding noise so a zero discount is never reported.
var DiscountEpsilon = decimal.NewFromFloat(0.01)

type Summary struct {
	SubtotalReal   decimal.Decimal
	MontoDescuento decimal.Decimal
	HayDescuento   bool
	Total          decimal.Decimal
	ItemCount      int
}

func LineSubtotal(line domain.CartLine) decimal.Decimal {
	if line.Cantidad <= 0 {
		return decimal.Zero
	}
	return line.PrecioUnitario.Mul(decimal.NewFromInt(int64(line.Cantidad)))
}

// Subtotal is the raw sum of price snapshots times quantity, independent of any
// server discount.
func Subtotal(items []domain.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range items {
		sum = sum.Add(LineSubtotal(line))
	}
	return sum
}

// Discount is the subtotal minus the server total, never below zero.
func Discount(items []domain.CartLine, total decimal.Decimal) decimal.Decimal {
	d := Subtotal(items).Sub(total)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func HasDiscount(discount decimal.Decimal) bool {
	return discount.GreaterThan(DiscountEpsilon)
}

// ItemCount sums cantidad over all lines; non-positive quantities count as zero.
func ItemCount(items []domain.CartLine) int {
	n := 0
	for _, line := range items {
		if line.Cantidad > 0 {
			n += line.Cantidad
		}
	}
	return n
}

func Summarize(cart domain.Cart) Summary {
	discount := Discount(cart.Items, cart.Total)
	return Summary{
		SubtotalReal:   Subtotal(cart.Items),
		MontoDescuento: discount,
		HayDescuento:   HasDiscount(discount),
		Total:          cart.Total,
		ItemCount:      ItemCount(cart.Items),
	}
}

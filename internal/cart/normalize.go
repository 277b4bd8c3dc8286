package cart

import (
	"bytes"
	"encoding/json"

	"github.com/levelup/storefront/internal/backend"
	"github.com/levelup/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// Normalize coerces whatever the backend sent into a publishable cart: items is
// always a slice and total is a finite non-negative amount. The total is the one
// the backend charges and is kept as sent. Every cart that enters the store goes
// through here.
func Normalize(p *backend.CartPayload) domain.Cart {
	if p == nil {
		return domain.EmptyCart()
	}
	return domain.Cart{Items: normalizeLines(p.Items), Total: amount(p.Total)}
}

// NormalizeOrder applies the same line rules to a checkout response.
func NormalizeOrder(p *backend.OrderPayload) domain.Order {
	if p == nil {
		return domain.Order{Detalles: []domain.CartLine{}}
	}
	return domain.Order{
		ID:             p.ID,
		Total:          amount(p.Total),
		DireccionEnvio: p.DireccionEnvio,
		Detalles:       normalizeLines(p.Detalles),
	}
}

func normalizeLines(raw json.RawMessage) []domain.CartLine {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || elems == nil {
		return []domain.CartLine{}
	}

	lines := make([]domain.CartLine, 0, len(elems))
	for _, elem := range elems {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(elem, &fields); err != nil || fields == nil {
			continue
		}
		line := domain.CartLine{
			ID:             integer(fields["id"]),
			PrecioUnitario: amount(fields["precioUnitario"]),
			Cantidad:       int(integer(fields["cantidad"])),
		}
		var producto map[string]json.RawMessage
		if err := json.Unmarshal(fields["producto"], &producto); err == nil {
			line.Producto.ID = integer(producto["id"])
			var nombre string
			if err := json.Unmarshal(producto["nombre"], &nombre); err == nil {
				line.Producto.Nombre = nombre
			}
		}
		lines = append(lines, line)
	}
	return lines
}

// number returns raw as a JSON number, or false for anything else (strings, null,
// objects, missing).
func number(raw json.RawMessage) (json.Number, bool) {
	if len(raw) == 0 {
		return "", false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	n, ok := v.(json.Number)
	return n, ok
}

func amount(raw json.RawMessage) decimal.Decimal {
	n, ok := number(raw)
	if !ok {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func integer(raw json.RawMessage) int64 {
	return amount(raw).IntPart()
}

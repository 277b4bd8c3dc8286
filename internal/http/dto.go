package http

import (
	"time"

	"github.com/levelup/storefront/internal/domain"
	"github.com/levelup/storefront/internal/pricing"
	"github.com/levelup/storefront/internal/receipts"
	"github.com/shopspring/decimal"
)

type IdentityDTO struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
	Rol    string `json:"rol,omitempty"`
}

type SessionResponseDTO struct {
	Authenticated   bool         `json:"authenticated"`
	Usuario         *IdentityDTO `json:"usuario,omitempty"`
	CantidadCarrito int          `json:"cantidadCarrito"`
}

type CartLineDTO struct {
	ID             int64           `json:"id"`
	ProductoID     int64           `json:"productoId"`
	Nombre         string          `json:"nombre"`
	PrecioUnitario decimal.Decimal `json:"precioUnitario"`
	Cantidad       int             `json:"cantidad"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type CartResponseDTO struct {
	Items           []CartLineDTO   `json:"items"`
	Total           decimal.Decimal `json:"total"`
	TotalFormateado string          `json:"totalFormateado"`
	SubtotalReal    decimal.Decimal `json:"subtotalReal"`
	MontoDescuento  decimal.Decimal `json:"montoDescuento"`
	HayDescuento    bool            `json:"hayDescuento"`
	CantidadTotal   int             `json:"cantidadTotal"`
}

type CheckoutSummaryDTO struct {
	Fase string          `json:"fase"`
	Cart CartResponseDTO `json:"carrito"`
}

type OrderResponseDTO struct {
	ID              int64           `json:"id"`
	Total           decimal.Decimal `json:"total"`
	TotalFormateado string          `json:"totalFormateado"`
	DireccionEnvio  string          `json:"direccionEnvio"`
	Detalles        []CartLineDTO   `json:"detalles"`
	CreatedAt       string          `json:"createdAt,omitempty"`
}

type ProductResponse struct {
	ID               int64           `json:"id"`
	Nombre           string          `json:"nombre"`
	Descripcion      string          `json:"descripcion,omitempty"`
	Precio           decimal.Decimal `json:"precio"`
	PrecioFormateado string          `json:"precioFormateado"`
	Stock            int             `json:"stock"`
	Categoria        string          `json:"categoria,omitempty"`
	ImagenURL        string          `json:"imagen,omitempty"`
}

type ProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

func toIdentityDTO(i *domain.Identity) *IdentityDTO {
	if i == nil {
		return nil
	}
	return &IdentityDTO{ID: i.ID, Nombre: i.Nombre, Email: i.Email, Rol: i.Rol}
}

func toLineDTOs(lines []domain.CartLine) []CartLineDTO {
	out := make([]CartLineDTO, len(lines))
	for i, l := range lines {
		out[i] = CartLineDTO{
			ID:             l.ID,
			ProductoID:     l.Producto.ID,
			Nombre:         l.Producto.Nombre,
			PrecioUnitario: l.PrecioUnitario,
			Cantidad:       l.Cantidad,
			Subtotal:       pricing.LineSubtotal(l),
		}
	}
	return out
}

func toCartDTO(cart domain.Cart) CartResponseDTO {
	sum := pricing.Summarize(cart)
	return CartResponseDTO{
		Items:           toLineDTOs(cart.Items),
		Total:           cart.Total,
		TotalFormateado: pricing.Format(cart.Total),
		SubtotalReal:    sum.SubtotalReal,
		MontoDescuento:  sum.MontoDescuento,
		HayDescuento:    sum.HayDescuento,
		CantidadTotal:   sum.ItemCount,
	}
}

func toOrderDTO(o domain.Order) OrderResponseDTO {
	return OrderResponseDTO{
		ID:              o.ID,
		Total:           o.Total,
		TotalFormateado: pricing.Format(o.Total),
		DireccionEnvio:  o.DireccionEnvio,
		Detalles:        toLineDTOs(o.Detalles),
	}
}

func toReceiptDTO(r receipts.Receipt) OrderResponseDTO {
	dto := toOrderDTO(domain.Order{
		ID:             r.OrderID,
		Total:          r.Total,
		DireccionEnvio: r.DireccionEnvio,
		Detalles:       r.Lines,
	})
	dto.CreatedAt = r.PlacedAt.Format(time.RFC3339)
	return dto
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:               p.ID,
		Nombre:           p.Nombre,
		Descripcion:      p.Descripcion,
		Precio:           p.Precio,
		PrecioFormateado: pricing.Format(p.Precio),
		Stock:            p.Stock,
		Categoria:        p.Categoria,
		ImagenURL:        p.ImagenURL,
	}
}

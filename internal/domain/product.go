package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID          int64           `json:"id"`
	Nombre      string          `json:"nombre"`
	Descripcion string          `json:"descripcion,omitempty"`
	Precio      decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
	Categoria   string          `json:"categoria,omitempty"`
	ImagenURL   string          `json:"imagen,omitempty"`
}

func (p Product) Ref() ProductRef {
	return ProductRef{ID: p.ID, Nombre: p.Nombre}
}

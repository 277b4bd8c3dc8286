package backend

import (
	"encoding/json"

	"github.com/levelup/storefront/internal/domain"
)

// CartPayload is the cart exactly as the backend sent it. Fields stay raw so the
// cart store can normalize malformed shapes in one place.
type CartPayload struct {
	Items json.RawMessage `json:"items"`
	Total json.RawMessage `json:"total"`
}

type OrderPayload struct {
	ID             int64           `json:"id"`
	Total          json.RawMessage `json:"total"`
	DireccionEnvio string          `json:"direccionEnvio"`
	Detalles       json.RawMessage `json:"detalles"`
}

type AddToCartRequest struct {
	UsuarioID  int64 `json:"usuarioId"`
	ProductoID int64 `json:"productoId"`
	Cantidad   int   `json:"cantidad"`
}

type CheckoutRequest struct {
	UsuarioID      int64  `json:"usuarioId"`
	DireccionEnvio string `json:"direccionEnvio"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Nombre    string `json:"nombre"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Direccion string `json:"direccion,omitempty"`
	Telefono  string `json:"telefono,omitempty"`
}

// userPayload accepts both a bare user object and {usuario, token}.
type userPayload struct {
	domain.Identity
	Usuario *domain.Identity `json:"usuario"`
}

func (p userPayload) identity() *domain.Identity {
	if p.Usuario != nil {
		id := *p.Usuario
		if id.Token == "" {
			id.Token = p.Token
		}
		return &id
	}
	id := p.Identity
	return &id
}

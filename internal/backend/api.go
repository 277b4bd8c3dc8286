package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/levelup/storefront/internal/domain"
)

// GetCart returns nil without error when the backend answers with a null body.
func (c *Client) GetCart(ctx context.Context, userID int64) (*CartPayload, error) {
	var p *CartPayload
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/carrito/%d", userID), nil, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Client) AddToCart(ctx context.Context, req AddToCartRequest) (*CartPayload, error) {
	var p *CartPayload
	if err := c.do(ctx, http.MethodPost, "/carrito/agregar", req, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (*OrderPayload, error) {
	var p *OrderPayload
	if err := c.do(ctx, http.MethodPost, "/checkout", req, &p); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("checkout returned an empty body")
	}
	return p, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*domain.Identity, error) {
	var p userPayload
	if err := c.do(ctx, http.MethodPost, "/usuarios/login", req, &p); err != nil {
		return nil, err
	}
	return p.identity(), nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*domain.Identity, error) {
	var p userPayload
	if err := c.do(ctx, http.MethodPost, "/usuarios/registro", req, &p); err != nil {
		return nil, err
	}
	return p.identity(), nil
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.do(ctx, http.MethodGet, "/productos", nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/productos/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

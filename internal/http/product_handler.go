package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/levelup/storefront/internal/domain"
	"go.uber.org/zap"
)

// Catalog is the read-only product side of the backend.
type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type ProductHandler struct {
	responder
	catalog Catalog
	timeout time.Duration
}

func NewProductHandler(catalog Catalog, timeout time.Duration, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		responder: newResponder(logger),
		catalog:   catalog,
		timeout:   timeout,
	}
}

// GET /api/v1/products
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.catalog.ListProducts(ctx)
	if err != nil {
		h.respondFailure(w, err, domain.Message(err, "could not load products"))
		return
	}
	products := make([]ProductResponse, len(res))
	for i, p := range res {
		products[i] = toProductResponse(p)
	}

	h.respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		h.respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	p, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		h.respondFailure(w, err, domain.Message(err, "could not load the product"))
		return
	}
	h.respondJSON(w, http.StatusOK, toProductResponse(*p))
}

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/levelup/storefront/internal/domain"
	"go.uber.org/zap"
)

type CartHandler struct {
	responder
	workspaces Workspaces
	timeout    time.Duration
}

func NewCartHandler(workspaces Workspaces, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		responder:  newResponder(logger),
		workspaces: workspaces,
		timeout:    timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64  `json:"productoId"`
	Nombre    string `json:"nombre"`
	Quantity  int    `json:"cantidad"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := h.workspaces.Get(ctx, getClientID(r.Context()))
	h.respondJSON(w, http.StatusOK, toCartDTO(ws.Cart().Snapshot().Cart))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ws := h.workspaces.Get(ctx, getClientID(r.Context()))
	res := ws.Cart().AddItem(ctx, domain.ProductRef{ID: req.ProductID, Nombre: req.Nombre}, req.Quantity)
	if !res.Success {
		h.respondFailure(w, res.Err, res.Message)
		return
	}
	h.respondJSON(w, http.StatusCreated, toCartDTO(res.Cart))
}

// POST /api/v1/cart/refresh
func (h *CartHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := h.workspaces.Get(ctx, getClientID(r.Context()))
	h.respondJSON(w, http.StatusOK, toCartDTO(ws.Cart().Refresh(ctx)))
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/levelup/storefront/internal/domain"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	responder
	workspaces Workspaces
	timeout    time.Duration
}

func NewCheckoutHandler(workspaces Workspaces, timeout time.Duration, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		responder:  newResponder(logger),
		workspaces: workspaces,
		timeout:    timeout,
	}
}

type CheckoutRequestDTO struct {
	DireccionEnvio string `json:"direccionEnvio"`
}

// GET /api/v1/checkout
// An empty cart never reaches the checkout view; the client is sent back to the cart.
func (h *CheckoutHandler) Enter(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := h.workspaces.Get(ctx, getClientID(r.Context()))
	_, err := ws.Coordinator().Enter()
	if errors.Is(err, domain.ErrEmptyCart) {
		http.Redirect(w, r, "/api/v1/cart", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.respondFailure(w, err, domain.Message(err, err.Error()))
		return
	}

	h.respondJSON(w, http.StatusOK, CheckoutSummaryDTO{
		Fase: ws.Coordinator().Phase().String(),
		Cart: toCartDTO(ws.Cart().Snapshot().Cart),
	})
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ws := h.workspaces.Get(ctx, getClientID(r.Context()))
	res := ws.Checkout(ctx, req.DireccionEnvio)
	if !res.Success {
		h.respondFailure(w, res.Err, res.Message)
		return
	}
	h.respondJSON(w, http.StatusCreated, toOrderDTO(*res.Order))
}

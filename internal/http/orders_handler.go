package http

import (
	"context"
	"net/http"
	"time"

	"github.com/levelup/storefront/internal/domain"
	"github.com/levelup/storefront/internal/receipts"
	"go.uber.org/zap"
)

type ReceiptLister interface {
	ListByUser(ctx context.Context, userID int64) ([]receipts.Receipt, error)
}

type OrdersHandler struct {
	responder
	workspaces Workspaces
	receipts   ReceiptLister
	timeout    time.Duration
}

func NewOrdersHandler(workspaces Workspaces, receipts ReceiptLister, timeout time.Duration, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		responder:  newResponder(logger),
		workspaces: workspaces,
		receipts:   receipts,
		timeout:    timeout,
	}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := h.workspaces.Get(ctx, getClientID(r.Context()))
	identity := ws.Session().Current()
	if identity == nil {
		h.respondFailure(w, domain.ErrAuthRequired, domain.ErrAuthRequired.Error())
		return
	}

	orders := []OrderResponseDTO{}
	if h.receipts != nil {
		list, err := h.receipts.ListByUser(ctx, identity.ID)
		if err != nil {
			h.logger.Error("failed to list receipts",
				zap.Int64("user_id", identity.ID),
				zap.String("request_id", getRequestID(r.Context())),
				zap.Error(err))
			h.respondError(w, http.StatusInternalServerError, "internal_error", "could not load your orders")
			return
		}
		for _, rc := range list {
			orders = append(orders, toReceiptDTO(rc))
		}
	}
	h.respondJSON(w, http.StatusOK, orders)
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/levelup/storefront/internal/domain"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// responder writes JSON answers and logs what cannot be written.
type responder struct {
	logger *zap.Logger
}

func newResponder(logger *zap.Logger) responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return responder{logger: logger}
}

func (rs responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (rs responder) respondError(w http.ResponseWriter, status int, code, message string) {
	rs.respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// respondFailure answers with message, which is already fit to show, and a
// status derived from err.
func (rs responder) respondFailure(w http.ResponseWriter, err error, message string) {
	status, code := classify(err)
	resp := ErrorResponse{Error: message, Code: code}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Details = ve.Field
	}
	rs.respondJSON(w, status, resp)
}

func classify(err error) (int, string) {
	var be *domain.BackendError
	isBackend := errors.As(err, &be)

	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, domain.ErrAuthRequired):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusConflict, "empty_cart"
	case errors.Is(err, domain.ErrCheckoutInProgress):
		return http.StatusConflict, "checkout_in_progress"
	case errors.Is(err, domain.ErrSessionChanged):
		return http.StatusConflict, "session_changed"
	case errors.Is(err, domain.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case isBackend && (be.Status == http.StatusUnauthorized || be.Status == http.StatusForbidden):
		return http.StatusUnauthorized, "unauthenticated"
	case isBackend && be.Status == http.StatusNotFound:
		return http.StatusNotFound, "not_found"
	case isBackend && be.Status < http.StatusInternalServerError:
		return http.StatusBadRequest, "rejected"
	case isBackend:
		return http.StatusBadGateway, "backend_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

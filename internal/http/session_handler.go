package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/levelup/storefront/internal/backend"
	"github.com/levelup/storefront/internal/storefront"
	"go.uber.org/zap"
)

// Workspaces resolves the workspace of a client session id.
type Workspaces interface {
	Get(ctx context.Context, clientID string) *storefront.Workspace
}

type SessionHandler struct {
	responder
	workspaces Workspaces
	timeout    time.Duration
}

func NewSessionHandler(workspaces Workspaces, timeout time.Duration, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		responder:  newResponder(logger),
		workspaces: workspaces,
		timeout:    timeout,
	}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequestDTO struct {
	Nombre    string `json:"nombre"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Direccion string `json:"direccion"`
	Telefono  string `json:"telefono"`
}

// GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := h.workspaces.Get(ctx, getClientID(r.Context()))
	h.respondJSON(w, http.StatusOK, sessionResponse(ws))
}

// POST /api/v1/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ws := h.workspaces.Get(ctx, getClientID(r.Context()))
	res := ws.Session().Login(ctx, req.Email, req.Password)
	if !res.Success {
		h.respondFailure(w, res.Err, res.Message)
		return
	}
	h.respondJSON(w, http.StatusOK, sessionResponse(ws))
}

// POST /api/v1/session/register
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ws := h.workspaces.Get(ctx, getClientID(r.Context()))
	res := ws.Session().Register(ctx, backend.RegisterRequest{
		Nombre:    req.Nombre,
		Email:     req.Email,
		Password:  req.Password,
		Direccion: req.Direccion,
		Telefono:  req.Telefono,
	})
	if !res.Success {
		h.respondFailure(w, res.Err, res.Message)
		return
	}
	h.respondJSON(w, http.StatusCreated, sessionResponse(ws))
}

// POST /api/v1/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ws := h.workspaces.Get(ctx, getClientID(r.Context()))
	ws.Session().Logout(ctx)
	h.respondJSON(w, http.StatusOK, sessionResponse(ws))
}

func sessionResponse(ws *storefront.Workspace) SessionResponseDTO {
	identity := ws.Session().Current()
	return SessionResponseDTO{
		Authenticated:   identity != nil,
		Usuario:         toIdentityDTO(identity),
		CantidadCarrito: ws.Cart().TotalItemCount(),
	}
}

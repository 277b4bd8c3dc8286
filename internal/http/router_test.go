package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/levelup/storefront/internal/backend"
	"github.com/levelup/storefront/internal/domain"
	"github.com/levelup/storefront/internal/receipts"
	"github.com/levelup/storefront/internal/storefront"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const clientID = "0f8fad5b-d9cb-469f-a165-70867728950e"

type fakeBackend struct {
	mu        sync.Mutex
	carts     map[int64]string
	addErr    error
	checkouts int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{carts: map[int64]string{}}
}

func (f *fakeBackend) factory(backend.TokenSource) storefront.Backend { return f }

func (f *fakeBackend) Login(_ context.Context, req backend.LoginRequest) (*domain.Identity, error) {
	if req.Password != "secret1" {
		return nil, &domain.BackendError{Status: http.StatusUnauthorized, Message: "Error: Credenciales inválidas"}
	}
	return &domain.Identity{ID: 7, Nombre: "Alice", Email: req.Email, Token: "tok"}, nil
}

func (f *fakeBackend) Register(_ context.Context, req backend.RegisterRequest) (*domain.Identity, error) {
	return &domain.Identity{ID: 8, Nombre: req.Nombre, Email: req.Email}, nil
}

func (f *fakeBackend) GetCart(_ context.Context, userID int64) (*backend.CartPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.carts[userID]
	if !ok {
		body = `{"items":[],"total":0}`
	}
	var p backend.CartPayload
	err := json.Unmarshal([]byte(body), &p)
	return &p, err
}

func (f *fakeBackend) AddToCart(ctx context.Context, req backend.AddToCartRequest) (*backend.CartPayload, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.mu.Lock()
	f.carts[req.UsuarioID] = `{"items":[{"id":1,"producto":{"id":5,"nombre":"Catan"},"precioUnitario":1000,"cantidad":2},{"id":2,"producto":{"id":6,"nombre":"Dados"},"precioUnitario":500,"cantidad":1}],"total":2000}`
	f.mu.Unlock()
	return f.GetCart(ctx, req.UsuarioID)
}

func (f *fakeBackend) Checkout(_ context.Context, req backend.CheckoutRequest) (*backend.OrderPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkouts++
	delete(f.carts, req.UsuarioID)
	return &backend.OrderPayload{ID: 99, Total: json.RawMessage(`2000`), DireccionEnvio: req.DireccionEnvio, Detalles: json.RawMessage(`[]`)}, nil
}

type fakeCatalog struct {
	products []domain.Product
	err      error
}

func (c fakeCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	return c.products, c.err
}

func (c fakeCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	for _, p := range c.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, &domain.BackendError{Status: http.StatusNotFound, Message: "Producto no encontrado"}
}

type fakeReceipts struct {
	list []receipts.Receipt
	err  error
}

func (f fakeReceipts) ListByUser(context.Context, int64) ([]receipts.Receipt, error) {
	return f.list, f.err
}

type testServer struct {
	handler http.Handler
	backend *fakeBackend
}

func newTestServer(t *testing.T, catalog Catalog, lister ReceiptLister) *testServer {
	fb := newFakeBackend()
	reg := storefront.NewRegistry(storefront.Options{Backend: fb.factory})
	t.Cleanup(reg.Close)
	return &testServer{
		handler: NewRouter(RouterConfig{
			Workspaces:     reg,
			Catalog:        catalog,
			Receipts:       lister,
			RequestTimeout: 5 * time.Second,
		}),
		backend: fb,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(ClientHeader, clientID)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/session/login", LoginRequestDTO{Email: "alice@levelup.cl", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, fakeCatalog{}, nil)

	rec := s.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestClientSession_IssuesCookie(t *testing.T) {
	s := newTestServer(t, fakeCatalog{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, ClientCookie, cookies[0].Name)
	assert.Equal(t, cookies[0].Value, rec.Header().Get(ClientHeader))
}

func TestSession_LoginAndLogout(t *testing.T) {
	s := newTestServer(t, fakeCatalog{}, nil)
	s.login(t)

	rec := s.do(t, http.MethodGet, "/api/v1/session", nil)
	var resp SessionResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Authenticated)
	require.NotNil(t, resp.Usuario)
	assert.Equal(t, int64(7), resp.Usuario.ID)

	rec = s.do(t, http.MethodPost, "/api/v1/session/logout", nil)
	resp = SessionResponseDTO{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Authenticated)
	assert.Nil(t, resp.Usuario)
}

func TestSession_LoginRejected(t *testing.T) {
	s := newTestServer(t, fakeCatalog{}, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/session/login", LoginRequestDTO{Email: "alice@levelup.cl", Password: "wrong1"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "Credenciales inválidas", resp.Error)
	assert.Equal(t, "unauthenticated", resp.Code)
}

func TestSession_RegisterValidation(t *testing.T) {
	s := newTestServer(t, fakeCatalog{}, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/session/register", RegisterRequestDTO{Nombre: "Bob", Email: "bob@levelup.cl", Password: "123"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "invalid_request", resp.Code)
	assert.Equal(t, "password", resp.Details)
}

func TestCart_AddItemRequiresLogin(t *testing.T) {
	s := newTestServer(t, fakeCatalog{}, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: 5, Quantity: 1})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Code)
}

func TestCart_AddItemShowsDiscount(t *testing.T) {
	s := newTestServer(t, fakeCatalog{}, nil)
	s.login(t)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: 5, Quantity: 2})

	require.Equal(t, http.StatusCreated, rec.Code)
	var cart CartResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cart))
	assert.Len(t, cart.Items, 2)
	assert.True(t, cart.SubtotalReal.Equal(decimal.NewFromInt(2500)))
	assert.True(t, cart.MontoDescuento.Equal(decimal.NewFromInt(500)))
	assert.True(t, cart.HayDescuento)
	assert.Equal(t, 3, cart.CantidadTotal)
	assert.Equal(t, "$2.000", cart.TotalFormateado)
}

func TestCart_AddItemBackendDown(t *testing.T) {
	s := newTestServer(t, fakeCatalog{}, nil)
	s.login(t)
	s.backend.addErr = domain.ErrBackendUnavailable

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: 5, Quantity: 1})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCheckout_EmptyCartRedirects(t *testing.T) {
	s := newTestServer(t, fakeCatalog{}, nil)
	s.login(t)

	rec := s.do(t, http.MethodGet, "/api/v1/checkout", nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/api/v1/cart", rec.Header().Get("Location"))
}

func TestCheckout_Flow(t *testing.T) {
	s := newTestServer(t, fakeCatalog{}, nil)
	s.login(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: 5}).Code)

	rec := s.do(t, http.MethodGet, "/api/v1/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary CheckoutSummaryDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, "IDLE", summary.Fase)
	assert.True(t, summary.Cart.HayDescuento)

	rec = s.do(t, http.MethodPost, "/api/v1/checkout", CheckoutRequestDTO{DireccionEnvio: " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "shipping address required", decodeError(t, rec).Error)
	assert.Equal(t, 0, s.backend.checkouts)

	rec = s.do(t, http.MethodPost, "/api/v1/checkout", CheckoutRequestDTO{DireccionEnvio: "Av. Matta 100"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var order OrderResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&order))
	assert.Equal(t, int64(99), order.ID)

	rec = s.do(t, http.MethodGet, "/api/v1/cart", nil)
	var cart CartResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cart))
	assert.Empty(t, cart.Items)
}

func TestOrders_ListReceipts(t *testing.T) {
	placed := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	s := newTestServer(t, fakeCatalog{}, fakeReceipts{list: []receipts.Receipt{
		{OrderID: 99, UserID: 7, Total: decimal.NewFromInt(2000), PlacedAt: placed},
	}})

	rec := s.do(t, http.MethodGet, "/api/v1/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	s.login(t)
	rec = s.do(t, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []OrderResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "2026-02-03T04:05:06Z", orders[0].CreatedAt)
}

func TestOrders_ReceiptsError(t *testing.T) {
	s := newTestServer(t, fakeCatalog{}, fakeReceipts{err: errors.New("db down")})
	s.login(t)

	rec := s.do(t, http.MethodGet, "/api/v1/orders", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestOrders_ReceiptsErrorLogsToRouterLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	fb := newFakeBackend()
	reg := storefront.NewRegistry(storefront.Options{Backend: fb.factory})
	t.Cleanup(reg.Close)
	s := &testServer{
		handler: NewRouter(RouterConfig{
			Workspaces:     reg,
			Catalog:        fakeCatalog{},
			Receipts:       fakeReceipts{err: errors.New("db down")},
			RequestTimeout: 5 * time.Second,
			Logger:         zap.New(core),
		}),
		backend: fb,
	}
	s.login(t)

	rec := s.do(t, http.MethodGet, "/api/v1/orders", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	entries := logs.FilterMessage("failed to list receipts").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(7), entries[0].ContextMap()["user_id"])
}

func TestProducts(t *testing.T) {
	s := newTestServer(t, fakeCatalog{products: []domain.Product{
		{ID: 5, Nombre: "Catan", Precio: decimal.NewFromInt(29990), Stock: 3},
	}}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ProductsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "$29.990", resp.Products[0].PrecioFormateado)

	rec = s.do(t, http.MethodGet, "/api/v1/products/5", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/products/404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.NewValidationError("x", "bad"), http.StatusBadRequest},
		{domain.ErrAuthRequired, http.StatusUnauthorized},
		{domain.ErrEmptyCart, http.StatusConflict},
		{domain.ErrCheckoutInProgress, http.StatusConflict},
		{domain.ErrSessionChanged, http.StatusConflict},
		{domain.ErrBackendUnavailable, http.StatusServiceUnavailable},
		{&domain.BackendError{Status: 400}, http.StatusBadRequest},
		{&domain.BackendError{Status: 500}, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, _ := classify(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
	}
}

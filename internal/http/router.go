package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Workspaces     Workspaces
	Catalog        Catalog
	Receipts       ReceiptLister
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sessionHandler := NewSessionHandler(cfg.Workspaces, cfg.RequestTimeout, logger)
	cartHandler := NewCartHandler(cfg.Workspaces, cfg.RequestTimeout, logger)
	checkoutHandler := NewCheckoutHandler(cfg.Workspaces, cfg.RequestTimeout, logger)
	ordersHandler := NewOrdersHandler(cfg.Workspaces, cfg.Receipts, cfg.RequestTimeout, logger)
	productHandler := NewProductHandler(cfg.Catalog, cfg.RequestTimeout, logger)

	health := newResponder(logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ClientSessionMiddleware)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Post("/login", sessionHandler.Login)
			r.Post("/register", sessionHandler.Register)
			r.Post("/logout", sessionHandler.Logout)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Post("/refresh", cartHandler.Refresh)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", checkoutHandler.Enter)
			r.Post("/", checkoutHandler.Checkout)
		})
		r.Get("/orders", ordersHandler.ListOrders)
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.Get)
			r.Get("/{product_id}", productHandler.GetByID)
		})
	})

	return r
}

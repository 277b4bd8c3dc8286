// Package storefront composes the per-client state of the gateway: who is logged
// in, what is in their cart and where their checkout stands.
package storefront

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/levelup/storefront/internal/backend"
	"github.com/levelup/storefront/internal/cart"
	"github.com/levelup/storefront/internal/checkout"
	"github.com/levelup/storefront/internal/domain"
	"github.com/levelup/storefront/internal/session"
	"go.uber.org/zap"
)

// Backend is everything a workspace asks of the store backend.
type Backend interface {
	session.AuthBackend
	cart.Backend
	checkout.Backend
}

// BackendFactory returns a backend that authenticates with tokens.
type BackendFactory func(tokens backend.TokenSource) Backend

type tokenFunc func() string

func (f tokenFunc) Token() string { return f() }

type Workspace struct {
	clientID    string
	binder      *session.Binder
	cart        *cart.Store
	coordinator *checkout.Coordinator

	restoreOnce sync.Once
	lastSeen    atomic.Int64
}

// NewWorkspace wires identity before cart before checkout. Every identity
// transition of the binder resets the cart store exactly once, and the reload of
// the new cart runs outside the transition.
func NewWorkspace(clientID string, factory BackendFactory, sessions session.Store, logger *zap.Logger, observers ...checkout.OrderObserver) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("client_id", clientID))

	w := &Workspace{clientID: clientID}
	be := factory(tokenFunc(func() string { return w.binder.Token() }))

	w.binder = session.NewBinder(clientID, be, sessions, logger)
	w.cart = cart.NewStore(be, logger)
	w.binder.Subscribe(w.cart.Reset)
	w.binder.OnSettled(func(ctx context.Context, _, _ *domain.Identity) {
		w.cart.Refresh(ctx)
	})
	w.coordinator = checkout.NewCoordinator(be, w.binder, w.cart, logger, observers...)
	return w
}

func (w *Workspace) ClientID() string { return w.clientID }
func (w *Workspace) Session() *session.Binder { return w.binder }
func (w *Workspace) Cart() *cart.Store { return w.cart }
func (w *Workspace) Coordinator() *checkout.Coordinator { return w.coordinator }

// Restore brings back the persisted identity. Only the first call does anything.
func (w *Workspace) Restore(ctx context.Context) {
	w.restoreOnce.Do(func() {
		w.binder.Restore(ctx)
	})
}

// Checkout places the order and, when it succeeds, reloads the cart the backend
// just emptied.
func (w *Workspace) Checkout(ctx context.Context, direccion string) checkout.Result {
	res := w.coordinator.Checkout(ctx, direccion)
	if res.Success {
		w.cart.Refresh(ctx)
	}
	return res
}

func (w *Workspace) touch(now time.Time) {
	w.lastSeen.Store(now.UnixNano())
}

func (w *Workspace) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, w.lastSeen.Load()))
}

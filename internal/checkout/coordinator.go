// Package checkout turns the published cart into an order.
package checkout

import (
	"context"
	"strings"
	"sync"

	"github.com/levelup/storefront/internal/backend"
	"github.com/levelup/storefront/internal/cart"
	"github.com/levelup/storefront/internal/domain"
	"github.com/levelup/storefront/internal/pricing"
	"go.uber.org/zap"
)

type Backend interface {
	Checkout(ctx context.Context, req backend.CheckoutRequest) (*backend.OrderPayload, error)
}

type IdentitySource interface {
	Current() *domain.Identity
}

type CartSource interface {
	Snapshot() cart.State
}

// OrderObserver is told about every order placed through the coordinator.
type OrderObserver interface {
	OrderPlaced(ctx context.Context, user domain.Identity, order domain.Order) error
}

type Result struct {
	Success bool
	Order   *domain.Order
	Message string
	Err     error
}

type Coordinator struct {
	backend   Backend
	identity  IdentitySource
	cart      CartSource
	observers []OrderObserver
	logger    *zap.Logger

	mu    sync.Mutex
	phase domain.CheckoutPhase
}

func NewCoordinator(b Backend, identity IdentitySource, cart CartSource, logger *zap.Logger, observers ...OrderObserver) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		backend:   b,
		identity:  identity,
		cart:      cart,
		observers: observers,
		logger:    logger,
		phase:     domain.CheckoutPhaseIdle,
	}
}

func (c *Coordinator) Phase() domain.CheckoutPhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Summary derives the display totals from the cart as it is published right now.
func (c *Coordinator) Summary() pricing.Summary {
	return pricing.Summarize(c.cart.Snapshot().Cart)
}

// Enter decides whether the checkout flow may be shown at all. It returns
// ErrAuthRequired or ErrEmptyCart when the caller should be sent elsewhere.
func (c *Coordinator) Enter() (pricing.Summary, error) {
	if c.identity.Current() == nil {
		return pricing.Summary{}, domain.ErrAuthRequired
	}
	snapshot := c.cart.Snapshot()
	if snapshot.Cart.IsEmpty() {
		return pricing.Summary{}, domain.ErrEmptyCart
	}
	return pricing.Summarize(snapshot.Cart), nil
}

// Checkout submits the current cart to be shipped to direccion. It never mutates
// the cart; the caller refreshes it after a success.
func (c *Coordinator) Checkout(ctx context.Context, direccion string) Result {
	if !c.begin() {
		return fail(domain.ErrCheckoutInProgress, "")
	}

	user, err := c.validate(direccion)
	if err != nil {
		c.moveTo(domain.CheckoutPhaseIdle)
		return fail(err, "")
	}

	c.moveTo(domain.CheckoutPhaseSubmitting)
	payload, err := c.backend.Checkout(ctx, backend.CheckoutRequest{
		UsuarioID:      user.ID,
		DireccionEnvio: strings.TrimSpace(direccion),
	})
	if err != nil {
		c.moveTo(domain.CheckoutPhaseFailed)
		c.logger.Warn("checkout failed", zap.Int64("user_id", user.ID), zap.Error(err))
		res := fail(err, "could not complete the purchase")
		// the attempt is over; the next submission starts from idle
		c.moveTo(domain.CheckoutPhaseIdle)
		return res
	}

	order := cart.NormalizeOrder(payload).Freeze()
	c.moveTo(domain.CheckoutPhaseSucceeded)
	c.logger.Info("order placed",
		zap.Int64("user_id", user.ID),
		zap.Int64("order_id", order.ID),
		zap.String("total", order.Total.String()))

	c.notify(ctx, *user, order)
	return Result{Success: true, Order: &order}
}

func (c *Coordinator) validate(direccion string) (*domain.Identity, error) {
	user := c.identity.Current()
	if user == nil {
		return nil, domain.ErrAuthRequired
	}
	if c.cart.Snapshot().Cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}
	if strings.TrimSpace(direccion) == "" {
		return nil, domain.NewValidationError("direccionEnvio", "shipping address required")
	}
	return user, nil
}

// begin claims the flow for one submission.
func (c *Coordinator) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !domain.CanTransitionTo(c.phase, domain.CheckoutPhaseValidating) {
		return false
	}
	c.phase = domain.CheckoutPhaseValidating
	return true
}

func (c *Coordinator) moveTo(next domain.CheckoutPhase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !domain.CanTransitionTo(c.phase, next) {
		c.logger.Error("illegal checkout transition",
			zap.Stringer("from", c.phase), zap.Stringer("to", next))
		return
	}
	c.phase = next
	if next.IsTerminal() {
		c.logger.Debug("checkout attempt finished", zap.Stringer("phase", next))
	}
}

func (c *Coordinator) notify(ctx context.Context, user domain.Identity, order domain.Order) {
	for _, o := range c.observers {
		if err := o.OrderPlaced(ctx, user, order.Freeze()); err != nil {
			c.logger.Warn("order observer failed", zap.Int64("order_id", order.ID), zap.Error(err))
		}
	}
}

func fail(err error, fallback string) Result {
	if fallback == "" {
		fallback = err.Error()
	}
	return Result{Message: domain.Message(err, fallback), Err: err}
}

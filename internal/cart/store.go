package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/levelup/storefront/internal/backend"
	"github.com/levelup/storefront/internal/domain"
	"github.com/levelup/storefront/internal/pricing"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Backend is the part of the store backend the cart needs.
type Backend interface {
	GetCart(ctx context.Context, userID int64) (*backend.CartPayload, error)
	AddToCart(ctx context.Context, req backend.AddToCartRequest) (*backend.CartPayload, error)
}

// State is the published cart. Version grows with every publish.
type State struct {
	Cart      domain.Cart
	ItemCount int
	Version   uint64
}

type Result struct {
	Success bool
	Message string
	Cart    domain.Cart
	Err     error
}

// Store owns the cart of one storefront client. Only Refresh, AddItem and identity
// transitions change it, and every change replaces the whole cart.
type Store struct {
	backend Backend
	logger  *zap.Logger
	sfg     singleflight.Group // collapses concurrent refreshes of the same identity

	mu       sync.RWMutex
	identity *domain.Identity
	epoch    uint64 // bumped on every identity transition
	issued   uint64 // last request sequence handed out
	applied  uint64 // sequence of the response currently published
	state    State
}

func NewStore(b Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend: b,
		logger:  logger,
		state:   State{Cart: domain.EmptyCart()},
	}
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Cart = st.Cart.Clone()
	return st
}

func (s *Store) TotalItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ItemCount
}

// OnIdentityChanged drops the current cart and loads the one of next.
func (s *Store) OnIdentityChanged(ctx context.Context, prev, next *domain.Identity) {
	s.Reset(ctx, prev, next)
	s.Refresh(ctx)
}

// Reset switches the store to next and publishes the empty cart without calling
// the backend. Responses to requests issued before the reset are discarded.
func (s *Store) Reset(_ context.Context, _, next *domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = next.Clone()
	s.epoch++
	s.applied = s.issued
	s.publishLocked(domain.EmptyCart())
}

// Refresh reloads the cart of the current identity. It never fails: without an
// identity, or when the backend cannot deliver a cart, the empty cart is published.
func (s *Store) Refresh(ctx context.Context) domain.Cart {
	s.mu.Lock()
	identity, epoch := s.identity.Clone(), s.epoch
	if identity == nil {
		s.publishLocked(domain.EmptyCart())
		s.mu.Unlock()
		return domain.EmptyCart()
	}
	s.mu.Unlock()

	key := fmt.Sprintf("%d#%d", identity.ID, epoch)
	_, _, _ = s.sfg.Do(key, func() (any, error) {
		seq := s.nextSeq()
		cart := domain.EmptyCart()
		payload, err := s.backend.GetCart(ctx, identity.ID)
		if err != nil {
			s.logger.Warn("cart fetch failed, showing empty cart",
				zap.Int64("user_id", identity.ID), zap.Error(err))
		} else {
			cart = Normalize(payload)
		}
		if !s.apply(epoch, seq, cart) {
			s.logger.Debug("discarded stale cart response", zap.Int64("user_id", identity.ID), zap.Uint64("seq", seq))
		}
		return nil, nil
	})

	return s.Snapshot().Cart
}

// AddItem asks the backend to add quantity units of product and adopts the cart
// the backend answers with. A quantity of 0 means 1.
func (s *Store) AddItem(ctx context.Context, product domain.ProductRef, quantity int) Result {
	s.mu.RLock()
	identity, epoch := s.identity.Clone(), s.epoch
	s.mu.RUnlock()

	if identity == nil {
		return Result{Message: domain.ErrAuthRequired.Error(), Cart: s.Snapshot().Cart, Err: domain.ErrAuthRequired}
	}
	if quantity == 0 {
		quantity = 1
	}
	if err := validateAdd(product, quantity); err != nil {
		return Result{Message: err.Error(), Cart: s.Snapshot().Cart, Err: err}
	}

	seq := s.nextSeq()
	payload, err := s.backend.AddToCart(ctx, backend.AddToCartRequest{
		UsuarioID:  identity.ID,
		ProductoID: product.ID,
		Cantidad:   quantity,
	})
	if err != nil {
		s.logger.Info("add to cart failed",
			zap.Int64("user_id", identity.ID), zap.Int64("product_id", product.ID), zap.Error(err))
		return Result{
			Message: domain.Message(err, "could not add the product to the cart"),
			Cart:    s.Snapshot().Cart,
			Err:     err,
		}
	}

	if !s.apply(epoch, seq, Normalize(payload)) {
		if !s.sameEpoch(epoch) {
			s.logger.Info("session changed during add to cart", zap.Int64("user_id", identity.ID))
			return Result{Message: domain.ErrSessionChanged.Error(), Cart: s.Snapshot().Cart, Err: domain.ErrSessionChanged}
		}
		// a newer response won the race; reload so the add is not lost from view
		s.Refresh(ctx)
	}
	return Result{Success: true, Cart: s.Snapshot().Cart}
}

func validateAdd(product domain.ProductRef, quantity int) error {
	if product.ID <= 0 {
		return domain.NewValidationError("producto", "product is required")
	}
	if quantity < 1 {
		return domain.NewValidationError("cantidad", "quantity must be at least 1")
	}
	return nil
}

func (s *Store) nextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

func (s *Store) sameEpoch(epoch uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch == epoch
}

// apply publishes cart unless the identity changed since the request was issued or
// a response to a later request is already published.
func (s *Store) apply(epoch, seq uint64, cart domain.Cart) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || seq < s.applied {
		return false
	}
	s.applied = seq
	s.publishLocked(cart)
	return true
}

func (s *Store) publishLocked(cart domain.Cart) {
	s.state = State{
		Cart:      cart,
		ItemCount: pricing.ItemCount(cart.Items),
		Version:   s.state.Version + 1,
	}
}

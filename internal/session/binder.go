package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/levelup/storefront/internal/backend"
	"github.com/levelup/storefront/internal/domain"
	"github.com/levelup/storefront/internal/pricing"
	"go.uber.org/zap"
)

// AuthBackend is the part of the store backend the binder needs.
type AuthBackend interface {
	Login(ctx context.Context, req backend.LoginRequest) (*domain.Identity, error)
	Register(ctx context.Context, req backend.RegisterRequest) (*domain.Identity, error)
}

// Listener is told about every identity transition. prev and next are copies.
type Listener func(ctx context.Context, prev, next *domain.Identity)

// Result is what auth operations report instead of failing.
type Result struct {
	Success  bool
	Message  string
	Identity *domain.Identity
	Err      error
}

func failed(err error, fallback string) Result {
	return Result{Success: false, Message: domain.Message(err, fallback), Err: err}
}

// Binder tracks the identity of one storefront client.
type Binder struct {
	clientID string
	auth     AuthBackend
	store    Store
	logger   *zap.Logger

	// transition serializes identity swaps together with Subscribe delivery, so
	// listeners observe transitions in the order they happened.
	transition sync.Mutex

	mu        sync.RWMutex
	identity  *domain.Identity
	listeners []Listener
	settled   []Listener
}

func NewBinder(clientID string, auth AuthBackend, store Store, logger *zap.Logger) *Binder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Binder{
		clientID: clientID,
		auth:     auth,
		store:    store,
		logger:   logger.With(zap.String("client_id", clientID)),
	}
}

func (b *Binder) ClientID() string {
	return b.clientID
}

func (b *Binder) Current() *domain.Identity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.identity.Clone()
}

// Token implements backend.TokenSource.
func (b *Binder) Token() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.identity == nil {
		return ""
	}
	return b.identity.Token
}

// Subscribe registers a listener that runs while the transition is still held.
// It must not block.
func (b *Binder) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// OnSettled registers a listener that runs once the transition is released, so a
// later Logout or switch is never held up by it.
func (b *Binder) OnSettled(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settled = append(b.settled, l)
}

// Restore adopts the persisted identity, if any, without calling the backend. The
// token is trusted until a protected call fails.
func (b *Binder) Restore(ctx context.Context) bool {
	if b.store == nil {
		return false
	}
	identity, err := b.store.Load(ctx, b.clientID)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			b.logger.Warn("session restore failed", zap.Error(err))
		}
		return false
	}
	if identity == nil || identity.ID == 0 {
		b.logger.Warn("persisted session has no user, discarding")
		if err := b.store.Delete(ctx, b.clientID); err != nil {
			b.logger.Warn("session delete failed", zap.Error(err))
		}
		return false
	}
	b.set(ctx, identity)
	b.logger.Info("session restored", zap.Int64("user_id", identity.ID))
	return true
}

func (b *Binder) Login(ctx context.Context, email, password string) Result {
	if err := pricing.Email(email); err != nil {
		return failed(err, "")
	}
	if err := pricing.Required("password", password); err != nil {
		return failed(err, "")
	}

	identity, err := b.auth.Login(ctx, backend.LoginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if err != nil {
		b.logger.Info("login failed", zap.Error(err))
		return failed(err, "could not log in, check your credentials")
	}
	if identity == nil || identity.ID == 0 {
		return failed(errors.New("login response has no user"), "could not log in, check your credentials")
	}

	b.adopt(ctx, identity)
	return Result{Success: true, Identity: identity.Clone()}
}

func (b *Binder) Register(ctx context.Context, req backend.RegisterRequest) Result {
	if err := pricing.Required("nombre", req.Nombre); err != nil {
		return failed(err, "")
	}
	if err := pricing.Email(req.Email); err != nil {
		return failed(err, "")
	}
	if err := pricing.Password(req.Password); err != nil {
		return failed(err, "")
	}
	req.Nombre = strings.TrimSpace(req.Nombre)
	req.Email = strings.TrimSpace(req.Email)

	identity, err := b.auth.Register(ctx, req)
	if err != nil {
		b.logger.Info("registration failed", zap.Error(err))
		return failed(err, "could not create the account")
	}
	if identity == nil || identity.ID == 0 {
		return failed(errors.New("registration response has no user"), "could not create the account")
	}

	b.adopt(ctx, identity)
	return Result{Success: true, Identity: identity.Clone()}
}

func (b *Binder) Logout(ctx context.Context) Result {
	if b.store != nil {
		if err := b.store.Delete(ctx, b.clientID); err != nil {
			b.logger.Warn("session delete failed", zap.Error(err))
		}
	}
	b.set(ctx, nil)
	return Result{Success: true}
}

func (b *Binder) adopt(ctx context.Context, identity *domain.Identity) {
	if b.store != nil {
		if err := b.store.Save(ctx, b.clientID, identity); err != nil {
			b.logger.Warn("session persist failed", zap.Error(err))
		}
	}
	b.set(ctx, identity)
}

// set swaps the identity and notifies listeners when the user actually changed.
func (b *Binder) set(ctx context.Context, next *domain.Identity) {
	b.transition.Lock()

	b.mu.Lock()
	prev := b.identity
	b.identity = next.Clone()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	settled := make([]Listener, len(b.settled))
	copy(settled, b.settled)
	b.mu.Unlock()

	if domain.SameUser(prev, next) {
		b.transition.Unlock()
		return
	}
	for _, l := range listeners {
		l(ctx, prev.Clone(), next.Clone())
	}
	b.transition.Unlock()

	for _, l := range settled {
		l(ctx, prev.Clone(), next.Clone())
	}
}

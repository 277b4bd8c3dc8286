package storefront

import (
	"context"
	"sync"
	"time"

	"github.com/levelup/storefront/internal/checkout"
	"github.com/levelup/storefront/internal/session"
	"go.uber.org/zap"
)

const (
	// DefaultIdleTTL is how long an unused workspace stays in memory.
	DefaultIdleTTL = 30 * time.Minute

	// CleanupInterval is how often the background cleanup runs
	CleanupInterval = 30 * time.Second
)

type Options struct {
	Backend   BackendFactory
	Sessions  session.Store
	Observers []checkout.OrderObserver
	Logger    *zap.Logger
	// IdleTTL <= 0 disables eviction.
	IdleTTL         time.Duration
	CleanupInterval time.Duration
}

// Registry holds one workspace per client session id. Workspaces are created on
// first use and dropped after sitting idle; the persisted identity survives in
// the session store.
type Registry struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	mu         sync.RWMutex
	workspaces map[string]*Workspace

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewRegistry(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = CleanupInterval
	}
	r := &Registry{
		opts:        opts,
		logger:      logger,
		now:         time.Now,
		workspaces:  make(map[string]*Workspace),
		stopCleanup: make(chan struct{}),
	}

	if opts.IdleTTL > 0 {
		r.wg.Add(1)
		go r.cleanupLoop()
	}
	return r
}

// Get returns the workspace of clientID, creating and restoring it if needed.
func (r *Registry) Get(ctx context.Context, clientID string) *Workspace {
	r.mu.RLock()
	w, ok := r.workspaces[clientID]
	r.mu.RUnlock()

	if !ok {
		r.mu.Lock()
		if w, ok = r.workspaces[clientID]; !ok {
			w = NewWorkspace(clientID, r.opts.Backend, r.opts.Sessions, r.logger, r.opts.Observers...)
			r.workspaces[clientID] = w
		}
		r.mu.Unlock()
	}

	w.touch(r.now())
	w.Restore(ctx)
	return w
}

// ForUser returns the workspaces currently logged in as userID.
func (r *Registry) ForUser(userID int64) []*Workspace {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Workspace
	for _, w := range r.workspaces {
		if id := w.binder.Current(); id != nil && id.ID == userID {
			result = append(result, w)
		}
	}
	return result
}

// RefreshUser reloads the cart of every workspace logged in as userID.
func (r *Registry) RefreshUser(ctx context.Context, userID int64) int {
	workspaces := r.ForUser(userID)
	for _, w := range workspaces {
		w.cart.Refresh(ctx)
	}
	return len(workspaces)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workspaces)
}

// Close stops the cleanup loop.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stopCleanup) })
	r.wg.Wait()
}

func (r *Registry) cleanupLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictIdle()
		case <-r.stopCleanup:
			return
		}
	}
}

// evictIdle drops every workspace unused for longer than IdleTTL.
func (r *Registry) evictIdle() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, w := range r.workspaces {
		if w.idleSince(now) > r.opts.IdleTTL {
			delete(r.workspaces, id)
			evicted++
		}
	}
	if evicted > 0 {
		r.logger.Debug("evicted idle workspaces", zap.Int("count", evicted))
	}
	return evicted
}

package session

import (
	"context"
	"errors"

	"github.com/levelup/storefront/internal/domain"
)

// StorageKey is the well-known key a client's identity is persisted under.
const StorageKey = "levelup:session"

var ErrNoSession = errors.New("no persisted session")

// Store persists the identity of a storefront client between restarts.
type Store interface {
	Load(ctx context.Context, clientID string) (*domain.Identity, error)
	Save(ctx context.Context, clientID string, identity *domain.Identity) error
	Delete(ctx context.Context, clientID string) error
}

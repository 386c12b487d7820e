package state

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PersisterFactory builds the persister for one cart namespace key.
type PersisterFactory func(key string) CartPersister

// CartManager hands out one CartStore per user, each persisted under its
// own namespaced key. Stores are created lazily and kept for the life of
// the process.
type CartManager struct {
	mu      sync.Mutex
	stores  map[uuid.UUID]*CartStore
	factory PersisterFactory
	logger  *zap.Logger
}

func NewCartManager(factory PersisterFactory, logger *zap.Logger) *CartManager {
	return &CartManager{
		stores:  make(map[uuid.UUID]*CartStore),
		factory: factory,
		logger:  logger,
	}
}

// For returns the user's cart, creating and loading it on first use.
func (m *CartManager) For(ctx context.Context, userID uuid.UUID) *CartStore {
	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.stores[userID]; ok {
		return store
	}

	key := StorageKey + ":" + userID.String()
	store := NewCartStore(ctx, m.factory(key), m.logger)
	m.stores[userID] = store
	return store
}

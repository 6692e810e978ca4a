package cart

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Manager hands out one Store per shopper session, hydrating it from the
// backing store on first access. Concurrent first requests for the same
// session share a single load via singleflight.
type Manager struct {
	storage Storage
	sfg     singleflight.Group

	mu     sync.Mutex
	stores map[string]*Store
}

func NewManager(storage Storage) *Manager {
	return &Manager{
		storage: storage,
		stores:  make(map[string]*Store),
	}
}

func (m *Manager) Get(ctx context.Context, sessionID string) (*Store, error) {
	m.mu.Lock()
	if store, ok := m.stores[sessionID]; ok {
		m.mu.Unlock()
		return store, nil
	}
	m.mu.Unlock()

	v, err, _ := m.sfg.Do(sessionID, func() (interface{}, error) {
		store := NewStore(sessionID, m.storage)
		if err := store.Hydrate(ctx); err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.stores[sessionID] = store
		m.mu.Unlock()
		return store, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Store), nil
}

// Drop forgets a session's store, forcing the next Get to re-hydrate.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	delete(m.stores, sessionID)
	m.mu.Unlock()
}

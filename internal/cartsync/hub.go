package cartsync

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/cart"
)

// Hub owns one running Syncer per active session.
type Hub struct {
	client  *redis.Client
	storage cart.Storage

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	syncers map[string]*Syncer
}

func NewHub(client *redis.Client, storage cart.Storage) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		client:  client,
		storage: storage,
		ctx:     ctx,
		cancel:  cancel,
		syncers: make(map[string]*Syncer),
	}
}

// For returns the session's syncer, starting one on first use.
func (h *Hub) For(store *cart.Store) *Syncer {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.syncers[store.Key()]; ok {
		return s
	}

	s := NewSyncer(h.client, h.storage, store)
	h.syncers[store.Key()] = s
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		s.Run(h.ctx)
	}()
	return s
}

// Close stops all syncers and waits for their loops to exit.
func (h *Hub) Close() {
	h.cancel()

	h.mu.Lock()
	for _, s := range h.syncers {
		s.Close()
	}
	h.syncers = make(map[string]*Syncer)
	h.mu.Unlock()

	h.wg.Wait()
}

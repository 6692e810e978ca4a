package cartsync

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/cart"
)

// Syncer keeps a derived cart-item count in sync across surfaces sharing one
// session. Two signals feed it: the store's in-process subscription (the
// backing store does not notify the writer's own process) and the redis
// channel the backing store publishes on for writes made elsewhere. On either
// signal it re-reads and republishes the count to its subscribers. The count
// is eventually consistent; concurrent writers race and the last write wins.
type Syncer struct {
	key     string
	store   *cart.Store
	storage cart.Storage
	client  *redis.Client

	unsubStore func()

	mu      sync.Mutex
	count   int
	subs    map[int]func(int)
	nextSub int
}

func NewSyncer(client *redis.Client, storage cart.Storage, store *cart.Store) *Syncer {
	s := &Syncer{
		key:     store.Key(),
		store:   store,
		storage: storage,
		client:  client,
		subs:    make(map[int]func(int)),
	}
	s.count = store.Snapshot().ItemCount()
	s.unsubStore = store.Subscribe(func() {
		s.publish(s.store.Snapshot().ItemCount())
	})
	return s
}

// Run consumes remote change notifications until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) {
	sub := s.client.Subscribe(ctx, cart.UpdateChannel(s.key))
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			s.refresh(ctx)
		}
	}
}

// refresh re-reads the backing store after a remote write. The local store's
// memory may be stale, so the durable copy is the one that counts here.
func (s *Syncer) refresh(ctx context.Context) {
	loaded, err := s.storage.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, cart.ErrCartNotFound) {
			s.publish(0)
			return
		}
		log.Printf("cart count refresh failed for %s: %v", s.key, err)
		return
	}
	s.publish(loaded.ItemCount())
}

func (s *Syncer) publish(count int) {
	s.mu.Lock()
	s.count = count
	subs := make([]func(int), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(count)
	}
}

// Count returns the last published item count.
func (s *Syncer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Subscribe registers a badge callback and returns its unsubscribe func.
func (s *Syncer) Subscribe(fn func(count int)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close detaches the syncer from its store.
func (s *Syncer) Close() {
	s.unsubStore()
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/domain"
)

// Store owns the ordered collection of cart lines for one shopper session.
// It is the single source of truth until an order is submitted: mutations
// update memory first, then flush the serialized cart to the backing store
// and signal subscribers. When a flush fails the in-memory state remains
// authoritative and the error propagates to the caller.
type Store struct {
	key     string
	storage Storage

	mu      sync.Mutex
	lines   []domain.CartLine
	subs    map[int]func()
	nextSub int
}

func NewStore(key string, storage Storage) *Store {
	return &Store{
		key:     key,
		storage: storage,
		subs:    make(map[int]func()),
	}
}

// Key is the session identifier this store persists under.
func (s *Store) Key() string {
	return s.key
}

// Hydrate replaces the in-memory lines with whatever the backing store holds.
// A missing cart is an empty cart, not an error.
func (s *Store) Hydrate(ctx context.Context) error {
	loaded, err := s.storage.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil
		}
		return fmt.Errorf("hydrate cart %s: %w", s.key, err)
	}

	s.mu.Lock()
	s.lines = append([]domain.CartLine(nil), loaded.Lines...)
	s.mu.Unlock()
	return nil
}

// Add appends a new line, or merges quantities when a line with the same
// uniqueness key already exists. A zero quantity counts as one.
func (s *Store) Add(ctx context.Context, line domain.CartLine) error {
	if line.Quantity <= 0 {
		line.Quantity = 1
	}

	s.mu.Lock()
	merged := false
	for i := range s.lines {
		if s.lines[i].Key() == line.Key() {
			s.lines[i].Quantity += line.Quantity
			merged = true
			break
		}
	}
	if !merged {
		s.lines = append(s.lines, line)
	}
	s.mu.Unlock()

	return s.flushAndSignal(ctx)
}

// UpdateQuantity adds delta to the matching line's quantity, removing the
// line when the result drops to zero or below. Absent keys and a zero delta
// are silent no-ops: nothing is flushed and no signal fires.
func (s *Store) UpdateQuantity(ctx context.Context, key domain.LineKey, delta int) error {
	if delta == 0 {
		return nil
	}

	s.mu.Lock()
	found := false
	for i := range s.lines {
		if s.lines[i].Key() == key {
			found = true
			s.lines[i].Quantity += delta
			if s.lines[i].Quantity <= 0 {
				s.lines = append(s.lines[:i], s.lines[i+1:]...)
			}
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return nil
	}
	return s.flushAndSignal(ctx)
}

// Remove drops the matching line unconditionally.
func (s *Store) Remove(ctx context.Context, key domain.LineKey) error {
	s.mu.Lock()
	for i := range s.lines {
		if s.lines[i].Key() == key {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	return s.flushAndSignal(ctx)
}

// Clear empties the collection. Called after a successful order handoff.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()

	return s.flushAndSignal(ctx)
}

// Snapshot returns a copy of the current lines for read-only use.
func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Cart{Lines: append([]domain.CartLine(nil), s.lines...)}
}

// Subscribe registers a change callback and returns its unsubscribe func.
// Callbacks run synchronously after each effective mutation.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
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

func (s *Store) flushAndSignal(ctx context.Context) error {
	s.mu.Lock()
	snapshot := domain.Cart{Lines: append([]domain.CartLine(nil), s.lines...)}
	subs := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	err := s.storage.Save(ctx, s.key, &snapshot)

	// Subscribers track the in-memory state, which stays authoritative even
	// when the flush fails.
	for _, fn := range subs {
		fn()
	}

	if err != nil {
		return fmt.Errorf("flush cart %s: %w", s.key, err)
	}
	return nil
}

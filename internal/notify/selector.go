package notify

import (
	"math/rand"
	"sync"
	"time"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/domain"
)

// Selector picks one channel from a non-empty active set. The policy is
// swappable without touching order submission.
type Selector interface {
	Select(channels []domain.NotificationChannel) domain.NotificationChannel
}

// RandomSelector spreads operator load uniformly with no stickiness across
// repeated submissions.
type RandomSelector struct {
	// intn overrides the random source in tests; nil means math/rand.
	intn func(n int) int
}

func NewRandomSelector() *RandomSelector {
	return &RandomSelector{}
}

func (s *RandomSelector) Select(channels []domain.NotificationChannel) domain.NotificationChannel {
	intn := s.intn
	if intn == nil {
		intn = rand.Intn
	}
	return channels[intn(len(channels))]
}

// RoundRobinSelector cycles through the set in order. The cursor survives
// changes to the pool; it wraps by the current pool size.
type RoundRobinSelector struct {
	mu   sync.Mutex
	next int
}

func NewRoundRobinSelector() *RoundRobinSelector {
	return &RoundRobinSelector{}
}

func (s *RoundRobinSelector) Select(channels []domain.NotificationChannel) domain.NotificationChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	picked := channels[s.next%len(channels)]
	s.next++
	return picked
}

// LeastRecentlyUsedSelector picks the channel that has gone longest without
// an order, so a channel added to the pool gets traffic immediately.
type LeastRecentlyUsedSelector struct {
	mu       sync.Mutex
	lastUsed map[string]time.Time
	now      func() time.Time
}

func NewLeastRecentlyUsedSelector() *LeastRecentlyUsedSelector {
	return &LeastRecentlyUsedSelector{
		lastUsed: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (s *LeastRecentlyUsedSelector) Select(channels []domain.NotificationChannel) domain.NotificationChannel {
	s.mu.Lock()
	defer s.mu.Unlock()

	picked := channels[0]
	for _, c := range channels[1:] {
		if s.lastUsed[c.Address].Before(s.lastUsed[picked.Address]) {
			picked = c
		}
	}
	s.lastUsed[picked.Address] = s.now()
	return picked
}

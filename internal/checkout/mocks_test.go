package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/domain"
)

// MockRepository implements OrderRepository for testing
type MockRepository struct {
	mu sync.Mutex

	CreateErr error
	OutboxErr error

	// captures
	CreatedTotal int64
	CreatedItems []domain.OrderItem
	Orders       int
	OutboxRows   [][]byte

	// Entered is signalled when CreateOrder is reached; BlockCreate, when
	// set, holds the call there so a test can keep a submission in flight.
	Entered     chan struct{}
	BlockCreate chan struct{}
}

func (m *MockRepository) CreateOrder(_ context.Context, totalAmount int64, items []domain.OrderItem) (*domain.Order, error) {
	if m.Entered != nil {
		m.Entered <- struct{}{}
	}
	if m.BlockCreate != nil {
		<-m.BlockCreate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.Orders++
	m.CreatedTotal = totalAmount
	m.CreatedItems = append([]domain.OrderItem(nil), items...)
	return &domain.Order{
		ID:          uuid.New(),
		TotalAmount: totalAmount,
		Status:      domain.OrderStatusPending,
		CreatedAt:   time.Now(),
	}, nil
}

func (m *MockRepository) InsertOutboxEvent(_ context.Context, _, _ string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OutboxErr != nil {
		return m.OutboxErr
	}
	m.OutboxRows = append(m.OutboxRows, payload)
	return nil
}

// MockDirectory implements ChannelDirectory for testing
type MockDirectory struct {
	Channels []domain.NotificationChannel
	Err      error
}

func (m *MockDirectory) ListActiveChannels(context.Context) ([]domain.NotificationChannel, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Channels, nil
}

// MockCartStore implements CartStore for testing
type MockCartStore struct {
	mu         sync.Mutex
	SessionKey string
	Lines      []domain.CartLine
	ClearErr   error
	Cleared    bool
}

func (m *MockCartStore) Key() string {
	if m.SessionKey == "" {
		return "session-1"
	}
	return m.SessionKey
}

func (m *MockCartStore) Snapshot() domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.Cart{Lines: append([]domain.CartLine(nil), m.Lines...)}
}

func (m *MockCartStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.Cleared = true
	m.Lines = nil
	return nil
}

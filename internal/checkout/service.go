package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/domain"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/notify"
)

const HandoffEventType = "order.handoff"

// OrderRepository is what submission needs from the order store. The order
// row and its item rows are one atomic write; the outbox row is recorded
// separately once the handoff is composed, since the message embeds the
// order identity the store assigned.
type OrderRepository interface {
	CreateOrder(ctx context.Context, totalAmount int64, items []domain.OrderItem) (*domain.Order, error)
	InsertOutboxEvent(ctx context.Context, aggregateID, eventType string, payload []byte) error
}

// ChannelDirectory lists the outbound channel pool.
type ChannelDirectory interface {
	ListActiveChannels(ctx context.Context) ([]domain.NotificationChannel, error)
}

// HandoffBuilder composes the channel-bound message for a persisted order.
type HandoffBuilder interface {
	BuildHandoff(orderID uuid.UUID, total int64, channels []domain.NotificationChannel) (*notify.Handoff, error)
}

// CartStore is the submitting shopper's cart handle.
type CartStore interface {
	Key() string
	Snapshot() domain.Cart
	Clear(ctx context.Context) error
}

// Submission is the outcome of a successful order handoff.
type Submission struct {
	Order   *domain.Order        `json:"order"`
	Items   []domain.OrderItem   `json:"items"`
	Pricing domain.PricingResult `json:"pricing"`
	Handoff *notify.Handoff      `json:"handoff"`
}

// handoffPayload is the outbox event body consumed by the publisher.
type handoffPayload struct {
	OrderID        string             `json:"order_id"`
	TotalAmount    int64              `json:"total_amount"`
	ChannelAddress string             `json:"channel_address"`
	ChannelName    string             `json:"channel_name"`
	OrderURL       string             `json:"order_url"`
	DeepLink       string             `json:"deep_link"`
	Items          []domain.OrderItem `json:"items"`
	SubmittedAt    time.Time          `json:"submitted_at"`
}

type Service struct {
	repo     OrderRepository
	channels ChannelDirectory
	router   HandoffBuilder
	timeout  time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewService(repo OrderRepository, channels ChannelDirectory, router HandoffBuilder, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		repo:     repo,
		channels: channels,
		router:   router,
		timeout:  timeout,
		inFlight: make(map[string]struct{}),
	}
}

// Submit turns a priced cart into a persisted order plus items and hands the
// order off to a notification channel. Preconditions are checked before any
// write; a second Submit for the same cart while one is in flight is a no-op.
// The cart is cleared only once the handoff is dispatched, and a dispatch
// failure never undoes the already-persisted order.
func (s *Service) Submit(ctx context.Context, cartStore CartStore, pricing domain.PricingResult) (*Submission, error) {
	if !s.begin(cartStore.Key()) {
		return nil, ErrSubmissionInFlight
	}
	defer s.end(cartStore.Key())

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snapshot := cartStore.Snapshot()
	if snapshot.Empty() {
		return nil, ErrEmptyCart
	}

	channels, err := s.channels.ListActiveChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notification channels: %w", err)
	}
	if len(notify.FilterActive(channels)) == 0 {
		return nil, notify.ErrNoChannelAvailable
	}

	items := itemsFromCart(snapshot)
	order, err := s.repo.CreateOrder(ctx, pricing.Total, items)
	if err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}
	for i := range items {
		items[i].OrderID = order.ID
	}

	handoff, err := s.router.BuildHandoff(order.ID, pricing.Total, channels)
	if err != nil {
		// The order row stays in place for manual reconciliation; an
		// automatic retry here risks duplicate orders.
		return nil, fmt.Errorf("build handoff for order %s: %w", order.ID, err)
	}

	payload, err := json.Marshal(handoffPayload{
		OrderID:        order.ID.String(),
		TotalAmount:    pricing.Total,
		ChannelAddress: handoff.ChannelAddress,
		ChannelName:    handoff.ChannelName,
		OrderURL:       handoff.OrderURL,
		DeepLink:       handoff.DeepLink,
		Items:          items,
		SubmittedAt:    time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal handoff payload: %w", err)
	}

	if err := s.repo.InsertOutboxEvent(ctx, order.ID.String(), HandoffEventType, payload); err != nil {
		return nil, fmt.Errorf("record handoff for order %s: %w", order.ID, err)
	}

	// Handoff dispatched; the order record is now authoritative.
	if err := cartStore.Clear(ctx); err != nil {
		log.Printf("failed to clear cart %s after order %s: %v", cartStore.Key(), order.ID, err)
	}

	return &Submission{
		Order:   order,
		Items:   items,
		Pricing: pricing,
		Handoff: handoff,
	}, nil
}

func (s *Service) begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *Service) end(key string) {
	s.mu.Lock()
	delete(s.inFlight, key)
	s.mu.Unlock()
}

func itemsFromCart(cart domain.Cart) []domain.OrderItem {
	items := make([]domain.OrderItem, len(cart.Lines))
	for i, line := range cart.Lines {
		items[i] = domain.OrderItem{
			ModelID:   line.ModelID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Size:      line.Size,
		}
	}
	return items
}

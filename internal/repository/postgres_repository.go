package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/domain"
)

// CreateOrder persists the order row and every item row in one transaction,
// so a failed item write can never leave an orphaned order behind. The
// store assigns the order identity and creation timestamp.
func (r *Repository) CreateOrder(ctx context.Context, totalAmount int64, items []domain.OrderItem) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback()

	order := &domain.Order{
		TotalAmount: totalAmount,
		Status:      domain.OrderStatusPending,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (total_amount, status) VALUES ($1, $2) RETURNING id, created_at`,
		totalAmount, order.Status,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, model_id, quantity, unit_price, size_value)
			 VALUES ($1, $2, $3, $4, $5)`,
			order.ID, item.ModelID, item.Quantity, item.UnitPrice, item.Size)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order tx: %w", err)
	}
	return order, nil
}

func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, []domain.OrderItem, error) {
	var order domain.Order
	err := r.db.QueryRowContext(ctx,
		`SELECT id, total_amount, status, created_at FROM orders WHERE id = $1`,
		id,
	).Scan(&order.ID, &order.TotalAmount, &order.Status, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("query order by id: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, model_id, quantity, unit_price, size_value
		 FROM order_items WHERE order_id = $1 ORDER BY id`,
		id)
	if err != nil {
		return nil, nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.OrderID, &item.ModelID, &item.Quantity, &item.UnitPrice, &item.Size); err != nil {
			return nil, nil, fmt.Errorf("scan order item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("row iteration error: %w", err)
	}

	return &order, items, nil
}

// ListActiveChannels returns the notification channel pool with the active
// flag set, the selection universe for order handoffs.
func (r *Repository) ListActiveChannels(ctx context.Context) ([]domain.NotificationChannel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT phone_number, account_name, is_active
		 FROM notification_channels WHERE is_active = TRUE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query active channels: %w", err)
	}
	defer rows.Close()

	var channels []domain.NotificationChannel
	for rows.Next() {
		var c domain.NotificationChannel
		if err := rows.Scan(&c.Address, &c.Name, &c.Active); err != nil {
			return nil, fmt.Errorf("scan channel row: %w", err)
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return channels, nil
}

func (r *Repository) InsertOutboxEvent(ctx context.Context, aggregateID, eventType string, payload []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`,
		aggregateID, eventType, payload)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload, created_at
		 FROM outbox_events WHERE processed_at IS NULL ORDER BY id LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *Repository) MarkEventProcessed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}
	return nil
}

package publisher

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/repository"
)

const handoffTopic = "order-handoffs"

// OutboxSource is what the poller needs from the order store.
type OutboxSource interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*repository.OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, id int64) error
}

// MessageWriter is the kafka producer surface, narrowed for testing.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPoller drains pending handoff events to kafka. Events are only
// marked processed after a successful publish, so a crashed poller re-sends
// rather than drops; consumers must tolerate duplicates. A circuit breaker
// keeps a dead broker from stalling every tick on write timeouts.
type OutboxPoller struct {
	tick      time.Duration
	batchSize int
	source    OutboxSource
	writer    MessageWriter
	breaker   *gobreaker.CircuitBreaker[struct{}]
}

func NewOutboxPoller(source OutboxSource, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  handoffTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return newOutboxPoller(source, w)
}

func newOutboxPoller(source OutboxSource, writer MessageWriter) *OutboxPoller {
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "handoff-publish",
		Timeout: 10 * time.Second,
	})
	return &OutboxPoller{
		tick:      time.Second,
		batchSize: 100,
		source:    source,
		writer:    writer,
		breaker:   breaker,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.source.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		log.Printf("failed to fetch outbox events: %v", err)
		return
	}

	for _, event := range events {
		if errPublish := p.publish(ctx, event); errPublish != nil {
			log.Printf("failed to publish outbox event id = %v with error %v", event.ID, errPublish)
			continue
		}

		if errMark := p.source.MarkEventProcessed(ctx, event.ID); errMark != nil {
			log.Printf("failed to mark outbox event as processed id = %v with error %v", event.ID, errMark)
			continue
		}
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id, for per-order ordering
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	_, err := p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.writer.WriteMessages(ctx, msg)
	})
	return err
}

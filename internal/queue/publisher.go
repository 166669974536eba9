package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends catalog events to RabbitMQ.  Each Publish dials, declares
// the queue and publishes a persistent message; catalog writes are rare
// enough that a long-lived channel is not worth the reconnect handling.
type Publisher struct {
	url string
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// dialTimeout bounds the broker connection when ctx has no deadline.
const dialTimeout = 5 * time.Second

// Publish publishes ev to the catalog.changed queue.  The connection attempt
// is bounded by ctx's deadline (or dialTimeout), so an unreachable broker
// cannot stall the caller for amqp's default 30s.
func (p *Publisher) Publish(ctx context.Context, ev CatalogEvent) error {
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(connectTimeout(ctx))})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(CatalogQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", CatalogQueueName, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// connectTimeout is the time left until ctx's deadline, or dialTimeout.
func connectTimeout(ctx context.Context) time.Duration {
	d := dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		d = time.Until(deadline)
	}
	if d <= 0 {
		// DefaultDial treats zero as no timeout
		d = time.Millisecond
	}
	return d
}

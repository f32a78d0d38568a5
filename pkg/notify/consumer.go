package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one delivered event. A returned error rejects the
// message without requeue so a poison message cannot loop.
type Handler func(ctx context.Context, ev Event) error

// Consumer drains the notification queue with a reconnect loop.
type Consumer struct {
	url     string
	handler Handler
}

// NewConsumer builds a consumer over the given broker URL.
func NewConsumer(url string, handler Handler) (*Consumer, error) {
	if url == "" {
		return nil, errors.New("amqp url is required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	return &Consumer{url: url, handler: handler}, nil
}

// Run consumes until the context is cancelled. Broker failures trigger
// reconnects with capped exponential backoff.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			slog.Warn("notification consumer dial failed", "error", err, "retry_in", backoff.String())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := c.consumeLoop(ctx, conn); err != nil {
			_ = conn.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("notification consume loop ended", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		slog.Warn("notification consumer qos failed", "error", err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			var ev Event
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				slog.Warn("notification event unmarshal failed", "error", err)
				_ = d.Nack(false, false)
				continue
			}
			if err := c.handler(ctx, ev); err != nil {
				slog.Warn("notification handling failed", "kind", ev.Kind, "error", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

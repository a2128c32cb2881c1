package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Config struct {
	URL          string
	Queue        string
	DialAttempts int
	DialBackoff  time.Duration
}

type Publisher interface {
	Publish(ctx context.Context, messageID string, body []byte) error
	Ping(ctx context.Context) error
	Close() error
}

type publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// NewPublisher dials the broker, retrying while it starts up, and declares a durable queue.
func NewPublisher(cfg *Config) (Publisher, error) {
	attempts := max(cfg.DialAttempts, 1)

	var (
		conn *amqp.Connection
		err  error
	)

	for i := 0; i < attempts; i++ {
		conn, err = amqp.Dial(cfg.URL)
		if err == nil {
			break
		}

		time.Sleep(cfg.DialBackoff)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}

	return &publisher{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
	}, nil
}

func (p *publisher) Publish(ctx context.Context, messageID string, body []byte) error {
	if err := p.channel.PublishWithContext(ctx,
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			MessageId:    messageID,
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

// Ping reports whether the connection and the publishing channel are still open.
// amqp091 drops both on a broker failure without reconnecting.
func (p *publisher) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if p.conn.IsClosed() {
		return amqp.ErrClosed
	}

	if p.channel.IsClosed() {
		return fmt.Errorf("publishing channel is closed: %w", amqp.ErrClosed)
	}

	return nil
}

func (p *publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		_ = p.conn.Close()

		return fmt.Errorf("failed to close channel: %w", err)
	}

	return p.conn.Close()
}

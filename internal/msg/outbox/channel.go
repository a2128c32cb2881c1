package outbox

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Channel delivers one serialized event. id is the event id and doubles as the
// broker message key so consumers can drop duplicates.
type Channel interface {
	Publish(ctx context.Context, id string, payload []byte) error
}

type KafkaProducer interface {
	PushMessage(ctx context.Context, key, value []byte, topic string) (partition int32, offset int64, err error)
}

type KafkaChannel struct {
	log      *zap.Logger
	producer KafkaProducer
	topic    string
}

func NewKafkaChannel(log *zap.Logger, producer KafkaProducer, topic string) *KafkaChannel {
	return &KafkaChannel{
		log:      log,
		producer: producer,
		topic:    topic,
	}
}

func (c *KafkaChannel) Publish(ctx context.Context, id string, payload []byte) error {
	partition, offset, err := c.producer.PushMessage(ctx, []byte(id), payload, c.topic)
	if err != nil {
		return fmt.Errorf("failed to push message to kafka: %w", err)
	}

	c.log.Debug("Event pushed to kafka",
		zap.String("event_id", id),
		zap.String("topic", c.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)

	return nil
}

type RabbitPublisher interface {
	Publish(ctx context.Context, messageID string, body []byte) error
}

type RabbitMQChannel struct {
	publisher RabbitPublisher
}

func NewRabbitMQChannel(publisher RabbitPublisher) *RabbitMQChannel {
	return &RabbitMQChannel{publisher: publisher}
}

func (c *RabbitMQChannel) Publish(ctx context.Context, id string, payload []byte) error {
	if err := c.publisher.Publish(ctx, id, payload); err != nil {
		return fmt.Errorf("failed to publish message to rabbitmq: %w", err)
	}

	return nil
}

// LogChannel writes events to the log instead of a broker. Used for local runs.
type LogChannel struct {
	log *zap.Logger
}

func NewLogChannel(log *zap.Logger) *LogChannel {
	return &LogChannel{log: log}
}

func (c *LogChannel) Publish(_ context.Context, id string, payload []byte) error {
	c.log.Info("Withdrawal event", zap.String("event_id", id), zap.ByteString("payload", payload))

	return nil
}

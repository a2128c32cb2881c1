package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
)

type Balancer int

const (
	RoundRobin Balancer = iota
	Hash
	Random
)

type RequiredAcks int

const (
	NoResponse RequiredAcks = iota
	WaitForLocal
	RequireAll
)

type Producer interface {
	PushMessage(ctx context.Context, key, value []byte, topic string) (partition int32, offset int64, err error)
	Ping(ctx context.Context) error
	Close() error
}

type ProducerOption func(cfg *sarama.Config)

func WithBalancer(balancer Balancer) ProducerOption {
	return func(cfg *sarama.Config) {
		switch balancer {
		case Hash:
			cfg.Producer.Partitioner = sarama.NewHashPartitioner
		case Random:
			cfg.Producer.Partitioner = sarama.NewRandomPartitioner
		default:
			cfg.Producer.Partitioner = sarama.NewRoundRobinPartitioner
		}
	}
}

func WithRequiredAcks(acks RequiredAcks) ProducerOption {
	return func(cfg *sarama.Config) {
		switch acks {
		case NoResponse:
			cfg.Producer.RequiredAcks = sarama.NoResponse
		case WaitForLocal:
			cfg.Producer.RequiredAcks = sarama.WaitForLocal
		default:
			cfg.Producer.RequiredAcks = sarama.WaitForAll
		}
	}
}

func WithMaxRetries(retries int) ProducerOption {
	return func(cfg *sarama.Config) {
		cfg.Producer.Retry.Max = retries
	}
}

type producer struct {
	client       sarama.Client
	syncProducer sarama.SyncProducer
}

func NewProducer(brokers []string, opts ...ProducerOption) (Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Idempotent = false

	for _, opt := range opts {
		opt(cfg)
	}

	client, err := sarama.NewClient(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	syncProducer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to create sync producer: %w", err)
	}

	return &producer{client: client, syncProducer: syncProducer}, nil
}

// PushMessage sends one message and waits for the broker acknowledgement.
// sarama's sync producer has no context support, so ctx is only checked before sending.
func (p *producer) PushMessage(ctx context.Context, key, value []byte, topic string) (partition int32, offset int64, err error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err = p.syncProducer.SendMessage(msg)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to send message: %w", err)
	}

	return partition, offset, nil
}

// Ping reports whether the cluster controller can be reached.
// Like PushMessage it only checks ctx before calling the client.
func (p *producer) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if p.client.Closed() {
		return sarama.ErrClosedClient
	}

	if _, err := p.client.Controller(); err != nil {
		return fmt.Errorf("failed to reach kafka controller: %w", err)
	}

	return nil
}

// Close stops the producer and then the client it was built from.
func (p *producer) Close() error {
	if err := p.syncProducer.Close(); err != nil {
		_ = p.client.Close()

		return err
	}

	return p.client.Close()
}

package inbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"withdrawal-service/pkg/kafka"
)

const messagePipeBuffer = 1000

type ConsumerGroupRunner interface {
	Run()
	Messages() <-chan *kafka.MessageWithMarkFunc
}

type Settler interface {
	Settle(ctx context.Context, messageID uuid.UUID, topic string, payload []byte) error
}

type Config struct {
	Name        string
	WorkerCount int
	Topic       string
}

// Subscriber feeds provider settlements from Kafka into the Settler.
// Every message is marked after handling, so a poisoned message is logged and dropped.
type Subscriber struct {
	l        *zap.Logger
	cfg      Config
	consumer ConsumerGroupRunner
	settler  Settler
}

func NewSubscriber(l *zap.Logger, cfg Config, consumer ConsumerGroupRunner, settler Settler) *Subscriber {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}

	return &Subscriber{
		l:        l,
		cfg:      cfg,
		consumer: consumer,
		settler:  settler,
	}
}

func (s *Subscriber) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		s.consumer.Run()
	}()

	messagePipe := make(chan *kafka.MessageWithMarkFunc, messagePipeBuffer)

	for i := 0; i < s.cfg.WorkerCount; i++ {
		go s.worker(ctx, i, messagePipe)
	}

	for {
		select {
		case <-ctx.Done():
			s.l.Info("Context canceled, stopping inbox")

			close(messagePipe)

			return
		case msg, ok := <-s.consumer.Messages():
			if !ok {
				s.l.Info("Consumer messages channel closed")

				close(messagePipe)

				return
			}

			messagePipe <- msg
		}
	}
}

func (s *Subscriber) worker(ctx context.Context, id int, messagePipe <-chan *kafka.MessageWithMarkFunc) {
	s.l.Info("Inbox Worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-ctx.Done():
			s.l.Info("Worker stopping", zap.Int("worker_id", id))

			return
		case msg, ok := <-messagePipe:
			if !ok {
				s.l.Info("Message channel closed", zap.Int("worker_id", id))

				return
			}

			if err := s.Handle(ctx, msg.Message.Key, msg.Message.Value); err != nil {
				s.l.Error("Error processing settlement", zap.Int("worker_id", id), zap.Error(err))
			}

			msg.Mark()
		}
	}
}

// Handle processes one raw message. The key is the message uuid, either as 16 raw bytes or as text.
func (s *Subscriber) Handle(ctx context.Context, key, value []byte) error {
	messageID, err := ParseMessageID(key)
	if err != nil {
		return err
	}

	if err := s.settler.Settle(ctx, messageID, s.cfg.Topic, value); err != nil {
		return fmt.Errorf("failed to settle message %s: %w", messageID, err)
	}

	s.l.Debug("Settlement received", zap.String("message_id", messageID.String()))

	return nil
}

func ParseMessageID(key []byte) (uuid.UUID, error) {
	if len(key) == 16 {
		id, err := uuid.FromBytes(key)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to parse message id: %w", err)
		}

		return id, nil
	}

	id, err := uuid.ParseBytes(key)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse message id: %w", err)
	}

	return id, nil
}

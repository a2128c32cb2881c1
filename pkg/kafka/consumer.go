package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/IBM/sarama"
)

type BalanceStrategy int

const (
	RangeBalanceStrategy BalanceStrategy = iota
	RoundrobinBalanceStrategy
	StickyBalanceStrategy
)

// MessageWithMarkFunc carries a consumed message and the function that commits its offset.
type MessageWithMarkFunc struct {
	Message *sarama.ConsumerMessage
	Mark    func()
}

type ConsumerGroupRunner interface {
	Run()
	Messages() <-chan *MessageWithMarkFunc
	Info() <-chan string
	Shutdown() error
}

type ConsumerOption func(cfg *sarama.Config)

func WithBalancerConsumer(strategy BalanceStrategy) ConsumerOption {
	return func(cfg *sarama.Config) {
		switch strategy {
		case RoundrobinBalanceStrategy:
			cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
		case StickyBalanceStrategy:
			cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategySticky()}
		default:
			cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRange()}
		}
	}
}

func WithOffsetOldest() ConsumerOption {
	return func(cfg *sarama.Config) {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
}

type consumerGroupRunner struct {
	group    sarama.ConsumerGroup
	topics   []string
	messages chan *MessageWithMarkFunc
	info     chan string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewConsumerGroupRunner(brokers []string, groupID string, topics []string, bufSize int, opts ...ConsumerOption) (ConsumerGroupRunner, error) {
	cfg := sarama.NewConfig()
	cfg.Consumer.Return.Errors = true
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	for _, opt := range opts {
		opt(cfg)
	}

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &consumerGroupRunner{
		group:    group,
		topics:   topics,
		messages: make(chan *MessageWithMarkFunc, bufSize),
		info:     make(chan string, 1),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Run consumes until Shutdown is called. The session is re-joined after every rebalance.
func (r *consumerGroupRunner) Run() {
	r.wg.Add(1)
	defer r.wg.Done()

	defer close(r.messages)

	handler := &groupHandler{messages: r.messages, info: r.info, topics: r.topics}

	for {
		if err := r.group.Consume(r.ctx, r.topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
		}

		if r.ctx.Err() != nil {
			return
		}
	}
}

func (r *consumerGroupRunner) Messages() <-chan *MessageWithMarkFunc {
	return r.messages
}

func (r *consumerGroupRunner) Info() <-chan string {
	return r.info
}

func (r *consumerGroupRunner) Shutdown() error {
	r.cancel()

	err := r.group.Close()

	r.wg.Wait()

	return err
}

type groupHandler struct {
	messages chan<- *MessageWithMarkFunc
	info     chan string
	topics   []string
	once     sync.Once
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.once.Do(func() {
		h.info <- fmt.Sprintf("Kafka consumer group started, topics: %s", strings.Join(h.topics, ","))
	})

	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			wrapped := &MessageWithMarkFunc{
				Message: msg,
				Mark: func() {
					session.MarkMessage(msg, "")
				},
			}

			select {
			case h.messages <- wrapped:
			case <-session.Context().Done():
				return nil
			}
		}
	}
}

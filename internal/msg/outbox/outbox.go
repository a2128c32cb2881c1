package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"withdrawal-service/internal/apperrors"
	"withdrawal-service/internal/model"
	"withdrawal-service/internal/repository"
)

const (
	defaultMaxRetries        = 3
	defaultPollInterval      = 5 * time.Second
	defaultBatchSize         = 100
	defaultWorkerCount       = 4
	defaultPublishTimeout    = 10 * time.Second
	defaultProcessingTimeout = 5 * time.Minute

	reasonProcessingTimedOut = "processing timed out"
)

type Repository interface {
	SelectDispatchBatch(ctx context.Context, ext repository.RepoExtension, maxRetries, batchSize int) ([]*model.OutboxEvent, error)
	SelectStuckProcessing(ctx context.Context, ext repository.RepoExtension, before time.Time, batchSize int) ([]*model.OutboxEvent, error)
	UpdateDeliveryState(ctx context.Context, ext repository.RepoExtension, event *model.OutboxEvent, from model.EventStatus) error
}

type Config struct {
	Name              string
	MaxRetries        int
	PollInterval      time.Duration
	BatchSize         int
	WorkerCount       int
	PublishTimeout    time.Duration
	ProcessingTimeout time.Duration
}

func (c *Config) normalize() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}

	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}

	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}

	if c.WorkerCount <= 0 {
		c.WorkerCount = defaultWorkerCount
	}

	if c.PublishTimeout <= 0 {
		c.PublishTimeout = defaultPublishTimeout
	}

	if c.ProcessingTimeout <= 0 {
		c.ProcessingTimeout = defaultProcessingTimeout
	}
}

// Result summarizes one dispatch cycle.
type Result struct {
	Selected          int
	Reclaimed         int
	Sent              int
	Retried           int
	Failed            int
	Skipped           int
	StateUpdateFailed int
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSent
	outcomeRetried
	outcomeFailed
	outcomeStateUpdateFailed
)

// Dispatcher polls the outbox and delivers pending withdrawal events to a Channel.
// A cycle finishes before the next one starts, so an event is handled by at most one worker at a time.
type Dispatcher struct {
	log     *zap.Logger
	cfg     Config
	repo    Repository
	channel Channel
	metrics dispatcherMetrics
	now     func() time.Time
}

func NewDispatcher(log *zap.Logger, cfg Config, repo Repository, channel Channel, provider metric.MeterProvider) (*Dispatcher, error) {
	cfg.normalize()

	metrics, err := newDispatcherMetrics(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to init dispatcher metrics: %w", err)
	}

	return &Dispatcher{
		log:     log,
		cfg:     cfg,
		repo:    repo,
		channel: channel,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info("Outbox dispatcher started",
		zap.String("name", d.cfg.Name),
		zap.Int("worker_count", d.cfg.WorkerCount),
		zap.Duration("poll_interval", d.cfg.PollInterval),
	)

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info("Outbox dispatcher stopped")

			return
		case <-ticker.C:
			d.ProcessOutbox(ctx)
		}
	}
}

// ProcessOutbox runs one dispatch cycle and blocks until every selected event is handled.
func (d *Dispatcher) ProcessOutbox(ctx context.Context) Result {
	start := d.now()

	var result Result

	defer func() {
		d.metrics.dispatchLatency.Record(ctx, time.Since(start).Seconds(), d.metricAttrs())
	}()

	result.Reclaimed = d.reclaimStuck(ctx)

	events, err := d.repo.SelectDispatchBatch(ctx, nil, d.cfg.MaxRetries, d.cfg.BatchSize)
	if err != nil {
		d.log.Error("Failed to select outbox batch", zap.Error(err))

		return result
	}

	result.Selected = len(events)
	d.metrics.batchSize.Record(ctx, int64(len(events)), d.metricAttrs())

	if len(events) == 0 {
		return result
	}

	eventPipe := make(chan *model.OutboxEvent)
	outcomes := make(chan outcome, len(events))

	var wg sync.WaitGroup

	for i := 0; i < min(d.cfg.WorkerCount, len(events)); i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for event := range eventPipe {
				outcomes <- d.deliverSafely(ctx, event)
			}
		}()
	}

	for _, event := range events {
		eventPipe <- event
	}

	close(eventPipe)
	wg.Wait()
	close(outcomes)

	for o := range outcomes {
		switch o {
		case outcomeSent:
			result.Sent++
		case outcomeRetried:
			result.Retried++
		case outcomeFailed:
			result.Failed++
		case outcomeStateUpdateFailed:
			result.StateUpdateFailed++
		default:
			result.Skipped++
		}
	}

	if result.Sent+result.Retried+result.Failed > 0 {
		d.log.Info("Outbox cycle finished",
			zap.Int("selected", result.Selected),
			zap.Int("sent", result.Sent),
			zap.Int("retried", result.Retried),
			zap.Int("failed", result.Failed),
		)
	}

	return result
}

func (d *Dispatcher) deliverSafely(ctx context.Context, event *model.OutboxEvent) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Panic while delivering outbox event",
				zap.String("event_id", event.ID.String()),
				zap.Any("panic", r),
			)

			o = outcomeStateUpdateFailed
		}
	}()

	return d.deliver(ctx, event)
}

func (d *Dispatcher) deliver(ctx context.Context, event *model.OutboxEvent) outcome {
	log := d.log.With(
		zap.String("event_id", event.ID.String()),
		zap.String("withdrawal_id", event.WithdrawalID.String()),
	)

	if !event.RetryEligible(d.cfg.MaxRetries) {
		return outcomeSkipped
	}

	from := event.EventStatus

	if !event.MarkProcessing(d.now().UTC()) {
		return outcomeSkipped
	}

	if err := d.repo.UpdateDeliveryState(ctx, nil, event, from); err != nil {
		if errors.Is(err, apperrors.ErrOutboxEventStateConflict) {
			log.Debug("Outbox event claimed elsewhere")

			return outcomeSkipped
		}

		log.Error("Failed to mark outbox event as processing", zap.Error(err))
		d.metrics.eventsStateFailed.Add(ctx, 1, d.metricAttrs())

		return outcomeStateUpdateFailed
	}

	publishErr := d.publish(ctx, event)

	// The outcome of a finished publish is persisted even when the dispatcher is stopping.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.PublishTimeout)
	defer cancel()

	if publishErr != nil {
		event.RegisterFailure(publishErr.Error(), d.cfg.MaxRetries, d.now().UTC())

		d.metrics.eventsFailed.Add(ctx, 1, d.metricAttrs())

		if err := d.repo.UpdateDeliveryState(persistCtx, nil, event, model.EventStatusProcessing); err != nil {
			log.Error("Failed to persist delivery failure", zap.Error(err))
			d.metrics.eventsStateFailed.Add(ctx, 1, d.metricAttrs())

			return outcomeStateUpdateFailed
		}

		if event.EventStatus == model.EventStatusFailed {
			log.Error("Outbox event delivery exhausted",
				zap.Int("retry_count", event.RetryCount),
				zap.Error(publishErr),
			)
			d.metrics.eventsExhausted.Add(ctx, 1, d.metricAttrs())

			return outcomeFailed
		}

		log.Warn("Outbox event delivery failed, will retry",
			zap.Int("retry_count", event.RetryCount),
			zap.Error(publishErr),
		)

		return outcomeRetried
	}

	event.MarkSent(d.now().UTC())

	if err := d.repo.UpdateDeliveryState(persistCtx, nil, event, model.EventStatusProcessing); err != nil {
		log.Error("Event published but not marked as sent", zap.Error(err))
		d.metrics.eventsStateFailed.Add(ctx, 1, d.metricAttrs())

		return outcomeStateUpdateFailed
	}

	d.metrics.eventsSent.Add(ctx, 1, d.metricAttrs())

	log.Debug("Outbox event sent")

	return outcomeSent
}

func (d *Dispatcher) publish(ctx context.Context, event *model.OutboxEvent) error {
	payload, err := json.Marshal(event.Message())
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, d.cfg.PublishTimeout)
	defer cancel()

	return d.channel.Publish(publishCtx, event.ID.String(), payload)
}

// reclaimStuck counts a delivery attempt against events left PROCESSING by a crashed cycle.
func (d *Dispatcher) reclaimStuck(ctx context.Context) int {
	now := d.now().UTC()

	stuck, err := d.repo.SelectStuckProcessing(ctx, nil, now.Add(-d.cfg.ProcessingTimeout), d.cfg.BatchSize)
	if err != nil {
		d.log.Error("Failed to select stuck outbox events", zap.Error(err))

		return 0
	}

	reclaimed := 0

	for _, event := range stuck {
		if !event.RegisterFailure(reasonProcessingTimedOut, d.cfg.MaxRetries, now) {
			continue
		}

		if err := d.repo.UpdateDeliveryState(ctx, nil, event, model.EventStatusProcessing); err != nil {
			if !errors.Is(err, apperrors.ErrOutboxEventStateConflict) {
				d.log.Error("Failed to reclaim stuck outbox event",
					zap.String("event_id", event.ID.String()),
					zap.Error(err),
				)
			}

			continue
		}

		reclaimed++
	}

	if reclaimed > 0 {
		d.log.Warn("Stuck outbox events reclaimed", zap.Int("count", reclaimed))
	}

	return reclaimed
}

func (d *Dispatcher) metricAttrs() metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("dispatcher", d.cfg.Name))
}

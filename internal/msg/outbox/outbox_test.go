package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"withdrawal-service/internal/apperrors"
	"withdrawal-service/internal/model"
	"withdrawal-service/internal/repository"
)

type memoryRepository struct {
	mu        sync.Mutex
	events    map[uuid.UUID]model.OutboxEvent
	order     []uuid.UUID
	selectErr error
	conflict  bool
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{events: make(map[uuid.UUID]model.OutboxEvent)}
}

func (r *memoryRepository) add(event *model.OutboxEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[event.ID] = *event
	r.order = append(r.order, event.ID)
}

func (r *memoryRepository) get(id uuid.UUID) model.OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.events[id]
}

func (r *memoryRepository) SelectDispatchBatch(_ context.Context, _ repository.RepoExtension, maxRetries, batchSize int) ([]*model.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.selectErr != nil {
		return nil, r.selectErr
	}

	var batch []*model.OutboxEvent

	for _, id := range r.order {
		event := r.events[id]

		eligible := event.EventStatus == model.EventStatusPending ||
			(event.EventStatus == model.EventStatusFailed && event.RetryCount < maxRetries)
		if !eligible {
			continue
		}

		batch = append(batch, &event)

		if len(batch) == batchSize {
			break
		}
	}

	return batch, nil
}

func (r *memoryRepository) SelectStuckProcessing(_ context.Context, _ repository.RepoExtension, before time.Time, batchSize int) ([]*model.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stuck []*model.OutboxEvent

	for _, id := range r.order {
		event := r.events[id]

		if event.EventStatus == model.EventStatusProcessing && event.UpdatedAt.Before(before) {
			stuck = append(stuck, &event)
		}

		if len(stuck) == batchSize {
			break
		}
	}

	return stuck, nil
}

func (r *memoryRepository) UpdateDeliveryState(_ context.Context, _ repository.RepoExtension, event *model.OutboxEvent, from model.EventStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.events[event.ID]
	if !ok || stored.EventStatus != from || (r.conflict && from != model.EventStatusProcessing) {
		return apperrors.ErrOutboxEventStateConflict
	}

	r.events[event.ID] = *event

	return nil
}

type recordingChannel struct {
	mu        sync.Mutex
	failing   map[string]bool
	failAll   bool
	published map[string]int
	payloads  [][]byte
}

func newRecordingChannel() *recordingChannel {
	return &recordingChannel{
		failing:   make(map[string]bool),
		published: make(map[string]int),
	}
}

func (c *recordingChannel) Publish(_ context.Context, id string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.published[id]++

	if c.failAll || c.failing[id] {
		return errors.New("broker unavailable")
	}

	c.payloads = append(c.payloads, payload)

	return nil
}

func (c *recordingChannel) attempts(id uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.published[id.String()]
}

func newTestEvent() *model.OutboxEvent {
	transactionID := "T"

	return model.NewOutboxEvent(model.WithdrawalKindImmediate, &model.Withdrawal{
		ID:              uuid.New(),
		Amount:          decimal.RequireFromString("100.00"),
		UserID:          uuid.New(),
		PaymentMethodID: uuid.New(),
		TransactionID:   &transactionID,
		Status:          model.WithdrawalStatusProcessing,
	}, time.Now().UTC())
}

func newTestDispatcher(t *testing.T, repo Repository, channel Channel) *Dispatcher {
	t.Helper()

	d, err := NewDispatcher(zap.NewNop(), Config{
		Name:              "test",
		MaxRetries:        3,
		WorkerCount:       4,
		BatchSize:         100,
		PublishTimeout:    time.Second,
		ProcessingTimeout: 5 * time.Minute,
	}, repo, channel, noop.NewMeterProvider())
	require.NoError(t, err)

	return d
}

func TestDispatcher_SendsPendingEventOnce(t *testing.T) {
	repo := newMemoryRepository()
	channel := newRecordingChannel()
	d := newTestDispatcher(t, repo, channel)

	event := newTestEvent()
	repo.add(event)

	result := d.ProcessOutbox(context.Background())

	assert.Equal(t, 1, result.Selected)
	assert.Equal(t, 1, result.Sent)

	stored := repo.get(event.ID)
	assert.Equal(t, model.EventStatusSent, stored.EventStatus)
	assert.NotNil(t, stored.ProcessedAt)
	assert.Zero(t, stored.RetryCount)

	require.Len(t, channel.payloads, 1)

	var msg model.WithdrawalEventMessage
	require.NoError(t, json.Unmarshal(channel.payloads[0], &msg))
	assert.Equal(t, event.ID, msg.EventID)
	assert.Equal(t, event.WithdrawalID, msg.WithdrawalID)
	assert.Equal(t, model.WithdrawalStatusProcessing, msg.Status)
	require.NotNil(t, msg.TransactionID)
	assert.Equal(t, "T", *msg.TransactionID)

	again := d.ProcessOutbox(context.Background())

	assert.Zero(t, again.Selected)
	assert.Equal(t, 1, channel.attempts(event.ID))
}

func TestDispatcher_StopsRetryingAtCeiling(t *testing.T) {
	repo := newMemoryRepository()
	channel := newRecordingChannel()
	channel.failAll = true
	d := newTestDispatcher(t, repo, channel)

	event := newTestEvent()
	repo.add(event)

	for attempt := 1; attempt <= 2; attempt++ {
		result := d.ProcessOutbox(context.Background())
		assert.Equal(t, 1, result.Retried)

		stored := repo.get(event.ID)
		assert.Equal(t, model.EventStatusPending, stored.EventStatus)
		assert.Equal(t, attempt, stored.RetryCount)
	}

	result := d.ProcessOutbox(context.Background())
	assert.Equal(t, 1, result.Failed)

	stored := repo.get(event.ID)
	assert.Equal(t, model.EventStatusFailed, stored.EventStatus)
	assert.Equal(t, 3, stored.RetryCount)
	require.NotNil(t, stored.LastError)
	assert.Contains(t, *stored.LastError, "broker unavailable")
	assert.NotNil(t, stored.ProcessedAt)

	result = d.ProcessOutbox(context.Background())
	assert.Zero(t, result.Selected)
	assert.Equal(t, 3, channel.attempts(event.ID))
}

func TestDispatcher_FailureDoesNotBlockOthers(t *testing.T) {
	repo := newMemoryRepository()
	channel := newRecordingChannel()
	d := newTestDispatcher(t, repo, channel)

	broken := newTestEvent()
	healthy := []*model.OutboxEvent{newTestEvent(), newTestEvent()}

	repo.add(broken)
	for _, event := range healthy {
		repo.add(event)
	}

	channel.failing[broken.ID.String()] = true

	result := d.ProcessOutbox(context.Background())

	assert.Equal(t, 3, result.Selected)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Retried)

	for _, event := range healthy {
		assert.Equal(t, model.EventStatusSent, repo.get(event.ID).EventStatus)
	}

	assert.Equal(t, model.EventStatusPending, repo.get(broken.ID).EventStatus)
}

func TestDispatcher_DeliversLargeBatchExactlyOnce(t *testing.T) {
	repo := newMemoryRepository()
	channel := newRecordingChannel()
	d := newTestDispatcher(t, repo, channel)

	events := make([]*model.OutboxEvent, 0, 40)
	for i := 0; i < 40; i++ {
		event := newTestEvent()
		events = append(events, event)
		repo.add(event)
	}

	result := d.ProcessOutbox(context.Background())
	assert.Equal(t, 40, result.Sent)

	for _, event := range events {
		assert.Equal(t, 1, channel.attempts(event.ID), fmt.Sprintf("event %s", event.ID))
		assert.Equal(t, model.EventStatusSent, repo.get(event.ID).EventStatus)
	}
}

func TestDispatcher_ReclaimsStuckEvents(t *testing.T) {
	repo := newMemoryRepository()
	channel := newRecordingChannel()
	d := newTestDispatcher(t, repo, channel)

	event := newTestEvent()
	event.EventStatus = model.EventStatusProcessing
	event.UpdatedAt = time.Now().UTC().Add(-10 * time.Minute)
	repo.add(event)

	fresh := newTestEvent()
	fresh.EventStatus = model.EventStatusProcessing
	repo.add(fresh)

	result := d.ProcessOutbox(context.Background())

	assert.Equal(t, 1, result.Reclaimed)
	assert.Equal(t, 1, result.Sent)

	stored := repo.get(event.ID)
	assert.Equal(t, model.EventStatusSent, stored.EventStatus)
	assert.Equal(t, 1, stored.RetryCount)
	require.NotNil(t, stored.LastError)
	assert.Equal(t, reasonProcessingTimedOut, *stored.LastError)

	// an event claimed recently is left to its worker
	assert.Equal(t, model.EventStatusProcessing, repo.get(fresh.ID).EventStatus)
	assert.Zero(t, channel.attempts(fresh.ID))
}

func TestDispatcher_SkipsEventClaimedElsewhere(t *testing.T) {
	repo := newMemoryRepository()
	repo.conflict = true
	channel := newRecordingChannel()
	d := newTestDispatcher(t, repo, channel)

	event := newTestEvent()
	repo.add(event)

	result := d.ProcessOutbox(context.Background())

	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, channel.attempts(event.ID))
	assert.Equal(t, model.EventStatusPending, repo.get(event.ID).EventStatus)
}

func TestDispatcher_SelectErrorEndsCycle(t *testing.T) {
	repo := newMemoryRepository()
	repo.selectErr = errors.New("connection refused")
	channel := newRecordingChannel()
	d := newTestDispatcher(t, repo, channel)

	result := d.ProcessOutbox(context.Background())

	assert.Equal(t, Result{}, result)
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	repo := newMemoryRepository()
	channel := newRecordingChannel()

	d, err := NewDispatcher(zap.NewNop(), Config{PollInterval: 10 * time.Millisecond}, repo, channel, noop.NewMeterProvider())
	require.NoError(t, err)

	event := newTestEvent()
	repo.add(event)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		d.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return repo.get(event.ID).EventStatus == model.EventStatusSent
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

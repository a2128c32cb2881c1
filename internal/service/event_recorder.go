package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"withdrawal-service/internal/model"
	"withdrawal-service/internal/repository"
)

type OutboxRepository interface {
	InsertEvent(ctx context.Context, ext repository.RepoExtension, event *model.OutboxEvent) error
}

// EventRecorder turns a withdrawal status change into a pending outbox event.
// It must be called with the transaction that writes the status change.
type EventRecorder struct {
	log        *zap.Logger
	outboxRepo OutboxRepository
	now        func() time.Time
}

func NewEventRecorder(log *zap.Logger, outboxRepo OutboxRepository) *EventRecorder {
	return &EventRecorder{
		log:        log,
		outboxRepo: outboxRepo,
		now:        time.Now,
	}
}

func (r *EventRecorder) Record(ctx context.Context, ext repository.RepoExtension, kind model.WithdrawalKind, w *model.Withdrawal) error {
	event := model.NewOutboxEvent(kind, w, r.now().UTC())

	if err := r.outboxRepo.InsertEvent(ctx, ext, event); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	r.log.Debug("Withdrawal event recorded",
		zap.String("event_id", event.ID.String()),
		zap.String("withdrawal_id", w.ID.String()),
		zap.String("status", w.Status.String()),
	)

	return nil
}

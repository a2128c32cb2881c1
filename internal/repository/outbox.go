package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"withdrawal-service/internal/apperrors"
	"withdrawal-service/internal/model"
)

const outboxColumns = `id, withdrawal_id, withdrawal_kind, status, amount, transaction_id, user_id, payment_method_id,
	event_status, created_at, updated_at, processed_at, retry_count, last_error`

type OutboxRepository struct {
	db *pgxpool.Pool
}

func NewOutboxRepository(db *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{
		db: db,
	}
}

func (r *OutboxRepository) InsertEvent(ctx context.Context, ext RepoExtension, event *model.OutboxEvent) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		INSERT INTO messages.withdrawal_event_outbox (
			id, withdrawal_id, withdrawal_kind, status, amount, transaction_id, user_id, payment_method_id,
			event_status, created_at, updated_at, retry_count
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`

	_, err := ext.Exec(ctx, query,
		event.ID,
		event.WithdrawalID,
		event.WithdrawalKind,
		event.Status,
		event.Amount,
		event.TransactionID,
		event.UserID,
		event.PaymentMethodID,
		event.EventStatus,
		event.CreatedAt,
		event.UpdatedAt,
		event.RetryCount,
	)
	if err != nil {
		return err
	}

	return nil
}

// SelectDispatchBatch returns PENDING events and FAILED events that are still
// under maxRetries, oldest first.
func (r *OutboxRepository) SelectDispatchBatch(ctx context.Context, ext RepoExtension, maxRetries, batchSize int) ([]*model.OutboxEvent, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT ` + outboxColumns + `
		FROM messages.withdrawal_event_outbox
		WHERE event_status = 'PENDING'
		   OR (event_status = 'FAILED' AND retry_count < $1)
		ORDER BY created_at
		LIMIT $2;
	`

	rows, err := ext.Query(ctx, query, maxRetries, batchSize)
	if err != nil {
		return nil, err
	}

	return collectOutboxEvents(rows)
}

// SelectStuckProcessing returns events left PROCESSING since before the given instant.
func (r *OutboxRepository) SelectStuckProcessing(ctx context.Context, ext RepoExtension, before time.Time, batchSize int) ([]*model.OutboxEvent, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT ` + outboxColumns + `
		FROM messages.withdrawal_event_outbox
		WHERE event_status = 'PROCESSING' AND updated_at < $1
		ORDER BY updated_at
		LIMIT $2;
	`

	rows, err := ext.Query(ctx, query, before, batchSize)
	if err != nil {
		return nil, err
	}

	return collectOutboxEvents(rows)
}

// SelectEventsByWithdrawalID returns every event recorded for a withdrawal, oldest first.
func (r *OutboxRepository) SelectEventsByWithdrawalID(ctx context.Context, ext RepoExtension, withdrawalID uuid.UUID) ([]*model.OutboxEvent, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT ` + outboxColumns + `
		FROM messages.withdrawal_event_outbox
		WHERE withdrawal_id = $1
		ORDER BY created_at;
	`

	rows, err := ext.Query(ctx, query, withdrawalID)
	if err != nil {
		return nil, err
	}

	return collectOutboxEvents(rows)
}

// UpdateDeliveryState persists the delivery fields of event if the stored row is
// still in status from.
func (r *OutboxRepository) UpdateDeliveryState(ctx context.Context, ext RepoExtension, event *model.OutboxEvent, from model.EventStatus) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		UPDATE messages.withdrawal_event_outbox
		SET event_status = $2, retry_count = $3, last_error = $4, processed_at = $5, updated_at = $6
		WHERE id = $1 AND event_status = $7;
	`

	tag, err := ext.Exec(ctx, query,
		event.ID,
		event.EventStatus,
		event.RetryCount,
		event.LastError,
		event.ProcessedAt,
		event.UpdatedAt,
		from,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrOutboxEventStateConflict
	}

	return nil
}

func scanOutboxEvent(row pgx.Row) (*model.OutboxEvent, error) {
	var event model.OutboxEvent

	if err := row.Scan(
		&event.ID,
		&event.WithdrawalID,
		&event.WithdrawalKind,
		&event.Status,
		&event.Amount,
		&event.TransactionID,
		&event.UserID,
		&event.PaymentMethodID,
		&event.EventStatus,
		&event.CreatedAt,
		&event.UpdatedAt,
		&event.ProcessedAt,
		&event.RetryCount,
		&event.LastError,
	); err != nil {
		return nil, err
	}

	return &event, nil
}

func collectOutboxEvents(rows pgx.Rows) ([]*model.OutboxEvent, error) {
	defer rows.Close()

	var events []*model.OutboxEvent

	for rows.Next() {
		event, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, err
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"withdrawal-service/internal/apperrors"
	"withdrawal-service/internal/model"
)

const scheduledWithdrawalColumns = withdrawalColumns + `, execute_at`

type ScheduledWithdrawalRepository struct {
	db *pgxpool.Pool
}

func NewScheduledWithdrawalRepository(db *pgxpool.Pool) *ScheduledWithdrawalRepository {
	return &ScheduledWithdrawalRepository{
		db: db,
	}
}

func (r *ScheduledWithdrawalRepository) InsertScheduledWithdrawal(ctx context.Context, ext RepoExtension, w *model.ScheduledWithdrawal) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		INSERT INTO domain.scheduled_withdrawals (id, amount, user_id, payment_method_id, status, created_at, execute_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

	_, err := ext.Exec(ctx, query, w.ID, w.Amount, w.UserID, w.PaymentMethodID, w.Status, w.CreatedAt, w.ExecuteAt)
	if err != nil {
		return err
	}

	return nil
}

func (r *ScheduledWithdrawalRepository) SelectScheduledWithdrawalByID(ctx context.Context, ext RepoExtension, id uuid.UUID) (*model.ScheduledWithdrawal, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `SELECT ` + scheduledWithdrawalColumns + ` FROM domain.scheduled_withdrawals WHERE id = $1;`

	w, err := scanScheduledWithdrawal(ext.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrWithdrawalDoesNotExist
		}

		return nil, err
	}

	return w, nil
}

func (r *ScheduledWithdrawalRepository) SelectScheduledWithdrawalByTransactionID(ctx context.Context, ext RepoExtension, transactionID string) (*model.ScheduledWithdrawal, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `SELECT ` + scheduledWithdrawalColumns + ` FROM domain.scheduled_withdrawals WHERE transaction_id = $1 FOR UPDATE;`

	w, err := scanScheduledWithdrawal(ext.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrWithdrawalDoesNotExist
		}

		return nil, err
	}

	return w, nil
}

// SelectDueScheduledWithdrawals returns PENDING rows whose execute_at is at or before now.
func (r *ScheduledWithdrawalRepository) SelectDueScheduledWithdrawals(ctx context.Context, ext RepoExtension, now time.Time) ([]*model.ScheduledWithdrawal, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT ` + scheduledWithdrawalColumns + `
		FROM domain.scheduled_withdrawals
		WHERE status = 'PENDING' AND execute_at <= $1
		ORDER BY execute_at;
	`

	rows, err := ext.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}

	return collectScheduledWithdrawals(rows)
}

func (r *ScheduledWithdrawalRepository) SelectScheduledWithdrawals(ctx context.Context, ext RepoExtension) ([]*model.ScheduledWithdrawal, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `SELECT ` + scheduledWithdrawalColumns + ` FROM domain.scheduled_withdrawals ORDER BY created_at;`

	rows, err := ext.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return collectScheduledWithdrawals(rows)
}

func (r *ScheduledWithdrawalRepository) UpdateScheduledWithdrawalStatus(ctx context.Context, ext RepoExtension, w *model.Withdrawal, from model.WithdrawalStatus) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		UPDATE domain.scheduled_withdrawals
		SET status = $2, transaction_id = COALESCE(transaction_id, $3)
		WHERE id = $1 AND status = $4;
	`

	tag, err := ext.Exec(ctx, query, w.ID, w.Status, w.TransactionID, from)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrWithdrawalStateConflict
	}

	return nil
}

func scanScheduledWithdrawal(row pgx.Row) (*model.ScheduledWithdrawal, error) {
	var w model.ScheduledWithdrawal

	if err := row.Scan(
		&w.ID,
		&w.Amount,
		&w.UserID,
		&w.PaymentMethodID,
		&w.TransactionID,
		&w.Status,
		&w.CreatedAt,
		&w.ExecuteAt,
	); err != nil {
		return nil, err
	}

	return &w, nil
}

func collectScheduledWithdrawals(rows pgx.Rows) ([]*model.ScheduledWithdrawal, error) {
	defer rows.Close()

	var withdrawals []*model.ScheduledWithdrawal

	for rows.Next() {
		w, err := scanScheduledWithdrawal(rows)
		if err != nil {
			return nil, err
		}

		withdrawals = append(withdrawals, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return withdrawals, nil
}

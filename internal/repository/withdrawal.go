package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"withdrawal-service/internal/apperrors"
	"withdrawal-service/internal/model"
)

const withdrawalColumns = `id, amount, user_id, payment_method_id, transaction_id, status, created_at`

type WithdrawalRepository struct {
	db *pgxpool.Pool
}

func NewWithdrawalRepository(db *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{
		db: db,
	}
}

func (r *WithdrawalRepository) InsertWithdrawal(ctx context.Context, ext RepoExtension, w *model.Withdrawal) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		INSERT INTO domain.withdrawals (id, amount, user_id, payment_method_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`

	_, err := ext.Exec(ctx, query, w.ID, w.Amount, w.UserID, w.PaymentMethodID, w.Status, w.CreatedAt)
	if err != nil {
		return err
	}

	return nil
}

func (r *WithdrawalRepository) SelectWithdrawalByID(ctx context.Context, ext RepoExtension, id uuid.UUID) (*model.Withdrawal, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `SELECT ` + withdrawalColumns + ` FROM domain.withdrawals WHERE id = $1;`

	w, err := scanWithdrawal(ext.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrWithdrawalDoesNotExist
		}

		return nil, err
	}

	return w, nil
}

func (r *WithdrawalRepository) SelectWithdrawalByTransactionID(ctx context.Context, ext RepoExtension, transactionID string) (*model.Withdrawal, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `SELECT ` + withdrawalColumns + ` FROM domain.withdrawals WHERE transaction_id = $1 FOR UPDATE;`

	w, err := scanWithdrawal(ext.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrWithdrawalDoesNotExist
		}

		return nil, err
	}

	return w, nil
}

func (r *WithdrawalRepository) SelectWithdrawalsByStatus(ctx context.Context, ext RepoExtension, status model.WithdrawalStatus) ([]*model.Withdrawal, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `SELECT ` + withdrawalColumns + ` FROM domain.withdrawals WHERE status = $1 ORDER BY created_at;`

	rows, err := ext.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}

	return collectWithdrawals(rows)
}

func (r *WithdrawalRepository) SelectWithdrawals(ctx context.Context, ext RepoExtension) ([]*model.Withdrawal, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `SELECT ` + withdrawalColumns + ` FROM domain.withdrawals ORDER BY created_at;`

	rows, err := ext.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return collectWithdrawals(rows)
}

// UpdateWithdrawalStatus persists w.Status and w.TransactionID only if the row is
// still in status from. A transaction id already stored is never overwritten.
func (r *WithdrawalRepository) UpdateWithdrawalStatus(ctx context.Context, ext RepoExtension, w *model.Withdrawal, from model.WithdrawalStatus) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		UPDATE domain.withdrawals
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

func scanWithdrawal(row pgx.Row) (*model.Withdrawal, error) {
	var w model.Withdrawal

	if err := row.Scan(
		&w.ID,
		&w.Amount,
		&w.UserID,
		&w.PaymentMethodID,
		&w.TransactionID,
		&w.Status,
		&w.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &w, nil
}

func collectWithdrawals(rows pgx.Rows) ([]*model.Withdrawal, error) {
	defer rows.Close()

	var withdrawals []*model.Withdrawal

	for rows.Next() {
		w, err := scanWithdrawal(rows)
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

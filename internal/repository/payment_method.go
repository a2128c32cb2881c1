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

type PaymentMethodRepository struct {
	db *pgxpool.Pool
}

func NewPaymentMethodRepository(db *pgxpool.Pool) *PaymentMethodRepository {
	return &PaymentMethodRepository{db: db}
}

func (r *PaymentMethodRepository) SelectPaymentMethodByID(ctx context.Context, ext RepoExtension, id uuid.UUID) (*model.PaymentMethod, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `SELECT id, user_id, name FROM domain.payment_methods WHERE id = $1;`

	var pm model.PaymentMethod

	if err := ext.QueryRow(ctx, query, id).Scan(&pm.ID, &pm.UserID, &pm.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPaymentMethodDoesNotExist
		}

		return nil, err
	}

	return &pm, nil
}

func (r *PaymentMethodRepository) SelectPaymentMethodsByUserID(ctx context.Context, ext RepoExtension, userID uuid.UUID) ([]model.PaymentMethod, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `SELECT id, user_id, name FROM domain.payment_methods WHERE user_id = $1 ORDER BY name;`

	rows, err := ext.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	methods := make([]model.PaymentMethod, 0)

	for rows.Next() {
		var pm model.PaymentMethod
		if err := rows.Scan(&pm.ID, &pm.UserID, &pm.Name); err != nil {
			return nil, err
		}

		methods = append(methods, pm)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return methods, nil
}

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

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) SelectUserByID(ctx context.Context, ext RepoExtension, id uuid.UUID) (*model.User, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT id, first_name, max_withdrawal_amount, created_at
		FROM domain.users
		WHERE id = $1;
	`

	var user model.User

	if err := ext.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.FirstName,
		&user.MaxWithdrawalAmount,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserDoesNotExist
		}

		return nil, err
	}

	return &user, nil
}

func (r *UserRepository) SelectUsers(ctx context.Context, ext RepoExtension) ([]*model.User, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT id, first_name, max_withdrawal_amount, created_at
		FROM domain.users
		ORDER BY created_at;
	`

	rows, err := ext.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var users []*model.User

	for rows.Next() {
		var user model.User
		if err := rows.Scan(
			&user.ID,
			&user.FirstName,
			&user.MaxWithdrawalAmount,
			&user.CreatedAt,
		); err != nil {
			return nil, err
		}

		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

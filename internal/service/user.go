package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"withdrawal-service/internal/model"
	"withdrawal-service/internal/repository"
)

type UserRepository interface {
	SelectUserByID(ctx context.Context, ext repository.RepoExtension, id uuid.UUID) (*model.User, error)
	SelectUsers(ctx context.Context, ext repository.RepoExtension) ([]*model.User, error)
}

type PaymentMethodRepository interface {
	SelectPaymentMethodByID(ctx context.Context, ext repository.RepoExtension, id uuid.UUID) (*model.PaymentMethod, error)
}

type UserPaymentMethodRepository interface {
	SelectPaymentMethodsByUserID(ctx context.Context, ext repository.RepoExtension, userID uuid.UUID) ([]model.PaymentMethod, error)
}

type UserService struct {
	log               *zap.Logger
	userRepo          UserRepository
	paymentMethodRepo UserPaymentMethodRepository
}

func NewUserService(log *zap.Logger, userRepo UserRepository, paymentMethodRepo UserPaymentMethodRepository) *UserService {
	return &UserService{
		log:               log,
		userRepo:          userRepo,
		paymentMethodRepo: paymentMethodRepo,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.SelectUserByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select user: %w", err)
	}

	if err := s.attachPaymentMethods(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.SelectUsers(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to select users: %w", err)
	}

	for _, user := range users {
		if err := s.attachPaymentMethods(ctx, user); err != nil {
			return nil, err
		}
	}

	return users, nil
}

func (s *UserService) attachPaymentMethods(ctx context.Context, user *model.User) error {
	methods, err := s.paymentMethodRepo.SelectPaymentMethodsByUserID(ctx, nil, user.ID)
	if err != nil {
		return fmt.Errorf("failed to select payment methods of user %s: %w", user.ID, err)
	}

	user.PaymentMethods = methods

	return nil
}

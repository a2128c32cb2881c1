package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"withdrawal-service/internal/apperrors"
	"withdrawal-service/internal/model"
	"withdrawal-service/internal/repository"
)

type InboxRepository interface {
	InsertMessage(ctx context.Context, ext repository.RepoExtension, message model.InboxMessage) error
	UpdateAsProcessed(ctx context.Context, ext repository.RepoExtension, messageID uuid.UUID) error
}

// SettlementService applies the provider's final verdict to withdrawals in PROCESSING.
type SettlementService struct {
	log            *zap.Logger
	tx             Transactor
	inboxRepo      InboxRepository
	withdrawalRepo WithdrawalRepository
	scheduledRepo  ScheduledWithdrawalRepository
	recorder       Recorder
}

func NewSettlementService(
	log *zap.Logger,
	tx Transactor,
	inboxRepo InboxRepository,
	withdrawalRepo WithdrawalRepository,
	scheduledRepo ScheduledWithdrawalRepository,
	recorder Recorder,
) *SettlementService {
	return &SettlementService{
		log:            log,
		tx:             tx,
		inboxRepo:      inboxRepo,
		withdrawalRepo: withdrawalRepo,
		scheduledRepo:  scheduledRepo,
		recorder:       recorder,
	}
}

// Settle handles one settlement message. Redelivered messages are skipped.
func (s *SettlementService) Settle(ctx context.Context, messageID uuid.UUID, topic string, payload []byte) error {
	var settlement model.SettlementMessage
	if err := json.Unmarshal(payload, &settlement); err != nil {
		return fmt.Errorf("failed to unmarshal settlement: %w", err)
	}

	if !settlement.Valid() {
		return fmt.Errorf("%w: invalid settlement for transaction %q", apperrors.ErrWithdrawalTransitionDenied, settlement.TransactionID)
	}

	log := s.log.With(
		zap.String("message_id", messageID.String()),
		zap.String("transaction_id", settlement.TransactionID),
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, ext repository.RepoExtension) error {
		if err := s.inboxRepo.InsertMessage(ctx, ext, model.InboxMessage{
			ID:      messageID,
			Topic:   topic,
			Payload: payload,
		}); err != nil {
			return fmt.Errorf("failed to insert inbox message: %w", err)
		}

		kind, w, err := s.findByTransactionID(ctx, ext, settlement.TransactionID)
		if err != nil {
			return err
		}

		if w.Status != model.WithdrawalStatusProcessing || !w.Status.CanTransitionTo(settlement.Status) {
			return fmt.Errorf("%w: %s -> %s", apperrors.ErrWithdrawalTransitionDenied, w.Status, settlement.Status)
		}

		from := w.Status
		w.Status = settlement.Status

		if kind == model.WithdrawalKindScheduled {
			err = s.scheduledRepo.UpdateScheduledWithdrawalStatus(ctx, ext, w, from)
		} else {
			err = s.withdrawalRepo.UpdateWithdrawalStatus(ctx, ext, w, from)
		}

		if err != nil {
			return fmt.Errorf("failed to update withdrawal status: %w", err)
		}

		if err := s.recorder.Record(ctx, ext, kind, w); err != nil {
			return fmt.Errorf("failed to record withdrawal event: %w", err)
		}

		if err := s.inboxRepo.UpdateAsProcessed(ctx, ext, messageID); err != nil {
			return fmt.Errorf("failed to mark inbox message as processed: %w", err)
		}

		log.Info("Withdrawal settled",
			zap.String("withdrawal_id", w.ID.String()),
			zap.String("status", w.Status.String()),
		)

		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInboxMessageDuplicate) {
			log.Debug("Settlement already handled")

			return nil
		}

		return err
	}

	return nil
}

func (s *SettlementService) findByTransactionID(ctx context.Context, ext repository.RepoExtension, transactionID string) (model.WithdrawalKind, *model.Withdrawal, error) {
	w, err := s.withdrawalRepo.SelectWithdrawalByTransactionID(ctx, ext, transactionID)
	if err == nil {
		return model.WithdrawalKindImmediate, w, nil
	}

	if !errors.Is(err, apperrors.ErrWithdrawalDoesNotExist) {
		return "", nil, fmt.Errorf("failed to select withdrawal: %w", err)
	}

	scheduled, err := s.scheduledRepo.SelectScheduledWithdrawalByTransactionID(ctx, ext, transactionID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to select scheduled withdrawal: %w", err)
	}

	return model.WithdrawalKindScheduled, &scheduled.Withdrawal, nil
}

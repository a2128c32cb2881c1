package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"withdrawal-service/internal/apperrors"
	"withdrawal-service/internal/gateway"
	"withdrawal-service/internal/model"
	"withdrawal-service/internal/repository"
)

const (
	defaultPollInterval   = 5 * time.Second
	defaultProcessTimeout = 30 * time.Second
	defaultPersistTimeout = 10 * time.Second
)

var errRecoveredPanic = errors.New("recovered panic")

type WithdrawalRepository interface {
	InsertWithdrawal(ctx context.Context, ext repository.RepoExtension, w *model.Withdrawal) error
	SelectWithdrawalByID(ctx context.Context, ext repository.RepoExtension, id uuid.UUID) (*model.Withdrawal, error)
	SelectWithdrawalByTransactionID(ctx context.Context, ext repository.RepoExtension, transactionID string) (*model.Withdrawal, error)
	SelectWithdrawalsByStatus(ctx context.Context, ext repository.RepoExtension, status model.WithdrawalStatus) ([]*model.Withdrawal, error)
	SelectWithdrawals(ctx context.Context, ext repository.RepoExtension) ([]*model.Withdrawal, error)
	UpdateWithdrawalStatus(ctx context.Context, ext repository.RepoExtension, w *model.Withdrawal, from model.WithdrawalStatus) error
}

type ScheduledWithdrawalRepository interface {
	InsertScheduledWithdrawal(ctx context.Context, ext repository.RepoExtension, w *model.ScheduledWithdrawal) error
	SelectScheduledWithdrawalByID(ctx context.Context, ext repository.RepoExtension, id uuid.UUID) (*model.ScheduledWithdrawal, error)
	SelectScheduledWithdrawalByTransactionID(ctx context.Context, ext repository.RepoExtension, transactionID string) (*model.ScheduledWithdrawal, error)
	SelectDueScheduledWithdrawals(ctx context.Context, ext repository.RepoExtension, now time.Time) ([]*model.ScheduledWithdrawal, error)
	SelectScheduledWithdrawals(ctx context.Context, ext repository.RepoExtension) ([]*model.ScheduledWithdrawal, error)
	UpdateScheduledWithdrawalStatus(ctx context.Context, ext repository.RepoExtension, w *model.Withdrawal, from model.WithdrawalStatus) error
}

type Gateway interface {
	Send(ctx context.Context, amount decimal.Decimal, pm *model.PaymentMethod) (string, error)
}

type Recorder interface {
	Record(ctx context.Context, ext repository.RepoExtension, kind model.WithdrawalKind, w *model.Withdrawal) error
}

type EventHistoryRepository interface {
	SelectEventsByWithdrawalID(ctx context.Context, ext repository.RepoExtension, withdrawalID uuid.UUID) ([]*model.OutboxEvent, error)
}

type WithdrawalConfig struct {
	PollInterval time.Duration
	// ProcessTimeout bounds a single gateway call.
	ProcessTimeout time.Duration
	// PersistTimeout bounds each store round trip made while processing.
	// Those run detached from the processing context so that an outcome is
	// still saved after the gateway call used up its deadline.
	PersistTimeout time.Duration
	RecoverPending bool
}

// WithdrawalService accepts withdrawals, submits them to the payment gateway
// in the background and records every resulting status change as an outbox event.
type WithdrawalService struct {
	log               *zap.Logger
	cfg               WithdrawalConfig
	tx                Transactor
	withdrawalRepo    WithdrawalRepository
	scheduledRepo     ScheduledWithdrawalRepository
	userRepo          UserRepository
	paymentMethodRepo PaymentMethodRepository
	gateway           Gateway
	recorder          Recorder
	eventHistory      EventHistoryRepository

	wg  sync.WaitGroup
	now func() time.Time
}

func NewWithdrawalService(
	log *zap.Logger,
	cfg WithdrawalConfig,
	tx Transactor,
	withdrawalRepo WithdrawalRepository,
	scheduledRepo ScheduledWithdrawalRepository,
	userRepo UserRepository,
	paymentMethodRepo PaymentMethodRepository,
	gw Gateway,
	recorder Recorder,
	eventHistory EventHistoryRepository,
) *WithdrawalService {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = defaultProcessTimeout
	}

	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = defaultPersistTimeout
	}

	return &WithdrawalService{
		log:               log,
		cfg:               cfg,
		tx:                tx,
		withdrawalRepo:    withdrawalRepo,
		scheduledRepo:     scheduledRepo,
		userRepo:          userRepo,
		paymentMethodRepo: paymentMethodRepo,
		gateway:           gw,
		recorder:          recorder,
		eventHistory:      eventHistory,
		now:               time.Now,
	}
}

// Submit validates an API request and hands it to Create or Schedule depending on ExecuteAt.
func (s *WithdrawalService) Submit(ctx context.Context, req model.CreateWithdrawalRequest) (*model.WithdrawalView, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", apperrors.ErrUserDoesNotExist)
	}

	paymentMethodID, err := uuid.Parse(req.PaymentMethodID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid payment method id", apperrors.ErrPaymentMethodDoesNotExist)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	user, err := s.userRepo.SelectUserByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select user: %w", err)
	}

	if !user.Allows(amount) {
		return nil, apperrors.ErrAmountExceedsLimit
	}

	pm, err := s.paymentMethodRepo.SelectPaymentMethodByID(ctx, nil, paymentMethodID)
	if err != nil {
		return nil, fmt.Errorf("failed to select payment method: %w", err)
	}

	if pm.UserID != user.ID {
		return nil, apperrors.ErrPaymentMethodNotOwned
	}

	w := model.Withdrawal{
		Amount:          amount,
		UserID:          user.ID,
		PaymentMethodID: pm.ID,
	}

	if req.ExecuteAt == model.ExecuteAtASAP {
		created, err := s.Create(ctx, &w)
		if err != nil {
			return nil, err
		}

		return &model.WithdrawalView{Kind: model.WithdrawalKindImmediate, Withdrawal: created}, nil
	}

	executeAt, err := time.Parse(time.RFC3339, req.ExecuteAt)
	if err != nil {
		return nil, apperrors.ErrInvalidExecuteAt
	}

	scheduled, err := s.Schedule(ctx, &model.ScheduledWithdrawal{Withdrawal: w, ExecuteAt: executeAt.UTC()})
	if err != nil {
		return nil, err
	}

	return &model.WithdrawalView{
		Kind:       model.WithdrawalKindScheduled,
		Withdrawal: &scheduled.Withdrawal,
		ExecuteAt:  &scheduled.ExecuteAt,
	}, nil
}

// Create stores w as PENDING and returns at once; the gateway call happens in a
// background goroutine that outlives ctx.
func (s *WithdrawalService) Create(ctx context.Context, w *model.Withdrawal) (*model.Withdrawal, error) {
	if !w.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	s.initPending(w)

	if err := s.withdrawalRepo.InsertWithdrawal(ctx, nil, w); err != nil {
		return nil, fmt.Errorf("failed to insert withdrawal: %w", err)
	}

	s.log.Info("Withdrawal created",
		zap.String("withdrawal_id", w.ID.String()),
		zap.String("amount", w.Amount.String()),
	)

	s.dispatch(ctx, model.WithdrawalKindImmediate, w.ID)

	return w, nil
}

// Schedule stores w as PENDING. It is picked up by PollScheduled once ExecuteAt has passed.
func (s *WithdrawalService) Schedule(ctx context.Context, w *model.ScheduledWithdrawal) (*model.ScheduledWithdrawal, error) {
	if !w.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	s.initPending(&w.Withdrawal)

	if err := s.scheduledRepo.InsertScheduledWithdrawal(ctx, nil, w); err != nil {
		return nil, fmt.Errorf("failed to insert scheduled withdrawal: %w", err)
	}

	s.log.Info("Withdrawal scheduled",
		zap.String("withdrawal_id", w.ID.String()),
		zap.Time("execute_at", w.ExecuteAt),
	)

	return w, nil
}

func (s *WithdrawalService) GetWithdrawal(ctx context.Context, id uuid.UUID) (*model.WithdrawalView, error) {
	w, err := s.withdrawalRepo.SelectWithdrawalByID(ctx, nil, id)
	if err == nil {
		return &model.WithdrawalView{Kind: model.WithdrawalKindImmediate, Withdrawal: w}, nil
	}

	if !errors.Is(err, apperrors.ErrWithdrawalDoesNotExist) {
		return nil, fmt.Errorf("failed to select withdrawal: %w", err)
	}

	scheduled, err := s.scheduledRepo.SelectScheduledWithdrawalByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select scheduled withdrawal: %w", err)
	}

	return &model.WithdrawalView{
		Kind:       model.WithdrawalKindScheduled,
		Withdrawal: &scheduled.Withdrawal,
		ExecuteAt:  &scheduled.ExecuteAt,
	}, nil
}

func (s *WithdrawalService) ListWithdrawals(ctx context.Context) ([]*model.WithdrawalView, error) {
	immediate, err := s.withdrawalRepo.SelectWithdrawals(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to select withdrawals: %w", err)
	}

	scheduled, err := s.scheduledRepo.SelectScheduledWithdrawals(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to select scheduled withdrawals: %w", err)
	}

	views := make([]*model.WithdrawalView, 0, len(immediate)+len(scheduled))

	for _, w := range immediate {
		views = append(views, &model.WithdrawalView{Kind: model.WithdrawalKindImmediate, Withdrawal: w})
	}

	for _, w := range scheduled {
		views = append(views, &model.WithdrawalView{
			Kind:       model.WithdrawalKindScheduled,
			Withdrawal: &w.Withdrawal,
			ExecuteAt:  &w.ExecuteAt,
		})
	}

	return views, nil
}

// ListWithdrawalEvents returns the status change history of a withdrawal of
// either kind, oldest first, together with the delivery state of each event.
func (s *WithdrawalService) ListWithdrawalEvents(ctx context.Context, id uuid.UUID) ([]*model.OutboxEvent, error) {
	if _, err := s.GetWithdrawal(ctx, id); err != nil {
		return nil, err
	}

	events, err := s.eventHistory.SelectEventsByWithdrawalID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select withdrawal events: %w", err)
	}

	return events, nil
}

// Run re-dispatches immediate withdrawals left PENDING by a previous process
// and then polls scheduled withdrawals until ctx is done.
func (s *WithdrawalService) Run(ctx context.Context) {
	if s.cfg.RecoverPending {
		s.RecoverPending(ctx)
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Scheduled withdrawal poller stopped")

			return
		case <-ticker.C:
			s.PollScheduled(ctx)
		}
	}
}

// PollScheduled runs every due scheduled withdrawal through processing once and
// returns how many were picked up.
func (s *WithdrawalService) PollScheduled(ctx context.Context) int {
	due, err := s.scheduledRepo.SelectDueScheduledWithdrawals(ctx, nil, s.now().UTC())
	if err != nil {
		s.log.Error("Failed to select due scheduled withdrawals", zap.Error(err))

		return 0
	}

	processed := 0

	for _, w := range due {
		if ctx.Err() != nil {
			break
		}

		s.processSafely(ctx, model.WithdrawalKindScheduled, w.ID)

		processed++
	}

	if processed > 0 {
		s.log.Info("Scheduled withdrawals processed", zap.Int("count", processed))
	}

	return processed
}

// RecoverPending dispatches every immediate withdrawal that is still PENDING.
func (s *WithdrawalService) RecoverPending(ctx context.Context) int {
	pending, err := s.withdrawalRepo.SelectWithdrawalsByStatus(ctx, nil, model.WithdrawalStatusPending)
	if err != nil {
		s.log.Error("Failed to select pending withdrawals", zap.Error(err))

		return 0
	}

	for _, w := range pending {
		s.dispatch(ctx, model.WithdrawalKindImmediate, w.ID)
	}

	if len(pending) > 0 {
		s.log.Info("Pending withdrawals recovered", zap.Int("count", len(pending)))
	}

	return len(pending)
}

// Shutdown waits for in-flight background processing until ctx is done.
func (s *WithdrawalService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("withdrawal workers did not finish: %w", ctx.Err())
	}
}

func (s *WithdrawalService) initPending(w *model.Withdrawal) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}

	w.Status = model.WithdrawalStatusPending
	w.TransactionID = nil
	w.CreatedAt = s.now().UTC()
}

func (s *WithdrawalService) dispatch(ctx context.Context, kind model.WithdrawalKind, id uuid.UUID) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		s.processSafely(context.WithoutCancel(ctx), kind, id)
	}()
}

// processSafely never panics. A panic during processing turns the withdrawal into INTERNAL_ERROR.
func (s *WithdrawalService) processSafely(ctx context.Context, kind model.WithdrawalKind, id uuid.UUID) {
	log := s.log.With(zap.String("withdrawal_id", id.String()), zap.String("kind", kind.String()))

	err := guard(func() error { return s.processOne(ctx, kind, id) })
	if err == nil {
		return
	}

	log.Error("Failed to process withdrawal", zap.Error(err))

	if !errors.Is(err, errRecoveredPanic) {
		return
	}

	if err := guard(func() error { return s.markInternalError(ctx, kind, id) }); err != nil {
		log.Error("Failed to mark withdrawal as internal error", zap.Error(err))
	}
}

// processOne sends a PENDING withdrawal to the gateway and saves the outcome.
// Cancelling ctx before the gateway call leaves the withdrawal PENDING. Once the
// call has been made its outcome is saved even if ctx is done by then.
func (s *WithdrawalService) processOne(ctx context.Context, kind model.WithdrawalKind, id uuid.UUID) error {
	log := s.log.With(zap.String("withdrawal_id", id.String()), zap.String("kind", kind.String()))

	loadCtx, cancel := s.persistContext(ctx)
	defer cancel()

	w, err := s.load(loadCtx, kind, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrWithdrawalDoesNotExist) {
			log.Warn("Withdrawal disappeared before processing")

			return nil
		}

		return fmt.Errorf("failed to load withdrawal: %w", err)
	}

	if w.Status != model.WithdrawalStatusPending {
		log.Debug("Withdrawal already processed", zap.String("status", w.Status.String()))

		return nil
	}

	pm, err := s.paymentMethodRepo.SelectPaymentMethodByID(loadCtx, nil, w.PaymentMethodID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPaymentMethodDoesNotExist) {
			log.Warn("Payment method not found, withdrawal abandoned",
				zap.String("payment_method_id", w.PaymentMethodID.String()),
			)

			return nil
		}

		return fmt.Errorf("failed to select payment method: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("withdrawal not sent: %w", err)
	}

	var transactionID string

	sendErr := guard(func() (err error) {
		sendCtx, cancel := context.WithTimeout(ctx, s.cfg.ProcessTimeout)
		defer cancel()

		transactionID, err = s.gateway.Send(sendCtx, w.Amount, pm)

		return err
	})

	next := model.WithdrawalStatusProcessing

	switch {
	case sendErr == nil:
	case errors.Is(sendErr, gateway.ErrTransactionRejected):
		log.Info("Withdrawal rejected by gateway", zap.Error(sendErr))

		next = model.WithdrawalStatusFailed
		transactionID = ""
	default:
		log.Error("Gateway call failed", zap.Error(sendErr))

		next = model.WithdrawalStatusInternalError
		transactionID = ""
	}

	if err := s.transition(ctx, kind, w, next, transactionID); err != nil {
		if transactionID != "" {
			log.Error("Gateway accepted withdrawal but its status was not saved",
				zap.String("transaction_id", transactionID),
				zap.Error(err),
			)
		}

		return err
	}

	log.Info("Withdrawal processed",
		zap.String("status", next.String()),
		zap.String("transaction_id", transactionID),
	)

	return nil
}

func (s *WithdrawalService) markInternalError(ctx context.Context, kind model.WithdrawalKind, id uuid.UUID) error {
	loadCtx, cancel := s.persistContext(ctx)
	defer cancel()

	w, err := s.load(loadCtx, kind, id)
	if err != nil {
		return fmt.Errorf("failed to load withdrawal: %w", err)
	}

	if w.Status != model.WithdrawalStatusPending {
		return nil
	}

	return s.transition(ctx, kind, w, model.WithdrawalStatusInternalError, "")
}

// transition writes the new status of w and its outbox event in one transaction.
// A concurrent writer that got there first is not an error.
func (s *WithdrawalService) transition(ctx context.Context, kind model.WithdrawalKind, w *model.Withdrawal, next model.WithdrawalStatus, transactionID string) error {
	if !w.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrWithdrawalTransitionDenied, w.Status, next)
	}

	updated := *w
	updated.Status = next

	if transactionID != "" {
		updated.TransactionID = &transactionID
	}

	persistCtx, cancel := s.persistContext(ctx)
	defer cancel()

	err := s.tx.WithinTx(persistCtx, func(ctx context.Context, ext repository.RepoExtension) error {
		if err := s.update(ctx, ext, kind, &updated, w.Status); err != nil {
			return fmt.Errorf("failed to update withdrawal status: %w", err)
		}

		if err := s.recorder.Record(ctx, ext, kind, &updated); err != nil {
			return fmt.Errorf("failed to record withdrawal event: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrWithdrawalStateConflict) {
			s.log.Info("Withdrawal status changed concurrently", zap.String("withdrawal_id", w.ID.String()))

			return nil
		}

		return err
	}

	*w = updated

	return nil
}

func (s *WithdrawalService) persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PersistTimeout)
}

func (s *WithdrawalService) load(ctx context.Context, kind model.WithdrawalKind, id uuid.UUID) (*model.Withdrawal, error) {
	if kind == model.WithdrawalKindScheduled {
		scheduled, err := s.scheduledRepo.SelectScheduledWithdrawalByID(ctx, nil, id)
		if err != nil {
			return nil, err
		}

		return &scheduled.Withdrawal, nil
	}

	return s.withdrawalRepo.SelectWithdrawalByID(ctx, nil, id)
}

func (s *WithdrawalService) update(ctx context.Context, ext repository.RepoExtension, kind model.WithdrawalKind, w *model.Withdrawal, from model.WithdrawalStatus) error {
	if kind == model.WithdrawalKindScheduled {
		return s.scheduledRepo.UpdateScheduledWithdrawalStatus(ctx, ext, w, from)
	}

	return s.withdrawalRepo.UpdateWithdrawalStatus(ctx, ext, w, from)
}

func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errRecoveredPanic, r)
		}
	}()

	return fn()
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"withdrawal-service/internal/model"
)

type WithdrawalService interface {
	Submit(ctx context.Context, req model.CreateWithdrawalRequest) (*model.WithdrawalView, error)
	GetWithdrawal(ctx context.Context, id uuid.UUID) (*model.WithdrawalView, error)
	ListWithdrawals(ctx context.Context) ([]*model.WithdrawalView, error)
	ListWithdrawalEvents(ctx context.Context, id uuid.UUID) ([]*model.OutboxEvent, error)
}

type WithdrawalHandler struct {
	BaseHandler

	log *zap.Logger
	svc WithdrawalService
}

func NewWithdrawalHandler(log *zap.Logger, svc WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{
		log: log,
		svc: svc,
	}
}

// CreateWithdrawal
// @Summary Создать вывод средств
// @Description executeAt = "ASAP" отправляет вывод сразу, RFC3339 время откладывает его до этого момента.
// @Description Ответ возвращается до обращения к платёжному провайдеру, статус вывода при этом PENDING.
// @Tags Withdrawal
// @Accept json
// @Produce json
// @Param request body model.CreateWithdrawalRequest true "Withdrawal"
// @Success 201 {object} ResponseWithData{data=model.WithdrawalView} "Вывод принят"
// @Failure 400 {object} ResponseWithMessage "Неверные данные"
// @Failure 404 {object} ResponseWithMessage "Пользователь или платёжный метод не найден"
// @Failure 500 {object} ResponseWithMessage "Внутренняя ошибка"
// @Router /withdrawals [post]
func (h *WithdrawalHandler) CreateWithdrawal(c *gin.Context) {
	ctx := c.Request.Context()

	var req model.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseWithMessage{
			Status:  StatusInvalidInput,
			Message: err.Error(),
		})

		return
	}

	view, err := h.svc.Submit(ctx, req)
	if err != nil {
		h.log.Debug("Withdrawal rejected", zap.String("user_id", req.UserID), zap.Error(err))
		h.WriteError(c, err)

		return
	}

	c.JSON(http.StatusCreated, ResponseWithData{
		Status: StatusSuccess,
		Data:   view,
	})
}

// GetWithdrawal
// @Summary Получить вывод средств по ID
// @Tags Withdrawal
// @Produce json
// @Param withdrawal_id path string true "Withdrawal UUID"
// @Success 200 {object} ResponseWithData{data=model.WithdrawalView} "Вывод"
// @Failure 400 {object} ResponseWithMessage "Неверный параметр пути"
// @Failure 404 {object} ResponseWithMessage "Вывод не найден"
// @Failure 500 {object} ResponseWithMessage "Внутренняя ошибка"
// @Router /withdrawals/{withdrawal_id} [get]
func (h *WithdrawalHandler) GetWithdrawal(c *gin.Context) {
	id, ok := h.bindWithdrawalID(c)
	if !ok {
		return
	}

	view, err := h.svc.GetWithdrawal(c.Request.Context(), id)
	if err != nil {
		h.WriteError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   view,
	})
}

// ListWithdrawals
// @Summary Список всех выводов
// @Description Немедленные и отложенные выводы вместе.
// @Tags Withdrawal
// @Produce json
// @Success 200 {object} ResponseWithData{data=[]model.WithdrawalView} "Выводы"
// @Failure 500 {object} ResponseWithMessage "Внутренняя ошибка"
// @Router /withdrawals [get]
func (h *WithdrawalHandler) ListWithdrawals(c *gin.Context) {
	views, err := h.svc.ListWithdrawals(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list withdrawals", zap.Error(err))
		h.WriteError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   views,
	})
}

// ListWithdrawalEvents
// @Summary История статусов вывода
// @Description События outbox по выводу в порядке создания, вместе с состоянием их доставки.
// @Tags Withdrawal
// @Produce json
// @Param withdrawal_id path string true "Withdrawal UUID"
// @Success 200 {object} ResponseWithData{data=[]model.OutboxEvent} "События"
// @Failure 400 {object} ResponseWithMessage "Неверный параметр пути"
// @Failure 404 {object} ResponseWithMessage "Вывод не найден"
// @Failure 500 {object} ResponseWithMessage "Внутренняя ошибка"
// @Router /withdrawals/{withdrawal_id}/events [get]
func (h *WithdrawalHandler) ListWithdrawalEvents(c *gin.Context) {
	id, ok := h.bindWithdrawalID(c)
	if !ok {
		return
	}

	events, err := h.svc.ListWithdrawalEvents(c.Request.Context(), id)
	if err != nil {
		h.WriteError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   events,
	})
}

// bindWithdrawalID writes a 400 response and returns false when the path does not carry a valid UUID.
func (h *WithdrawalHandler) bindWithdrawalID(c *gin.Context) (uuid.UUID, bool) {
	var uri model.WithdrawalIDPathParam
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, ResponseWithMessage{
			Status:  StatusInvalidInput,
			Message: err.Error(),
		})

		return uuid.Nil, false
	}

	id, err := uuid.Parse(uri.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ResponseWithMessage{
			Status:  StatusInvalidInput,
			Message: err.Error(),
		})

		return uuid.Nil, false
	}

	return id, true
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"withdrawal-service/internal/model"
)

type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
}

type UserHandler struct {
	BaseHandler

	log *zap.Logger
	svc UserService
}

func NewUserHandler(log *zap.Logger, svc UserService) *UserHandler {
	return &UserHandler{
		log: log,
		svc: svc,
	}
}

// GetUser
// @Summary Получить пользователя по ID
// @Description Возвращает пользователя вместе с его платёжными методами.
// @Tags User
// @Produce json
// @Param user_id path string true "User UUID"
// @Success 200 {object} ResponseWithData{data=model.User} "Пользователь"
// @Failure 400 {object} ResponseWithMessage "Неверный параметр пути"
// @Failure 404 {object} ResponseWithMessage "Пользователь не найден"
// @Failure 500 {object} ResponseWithMessage "Внутренняя ошибка"
// @Router /users/{user_id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	ctx := c.Request.Context()

	var uri model.UserIDPathParam
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, ResponseWithMessage{
			Status:  StatusInvalidInput,
			Message: err.Error(),
		})

		return
	}

	userID, err := uuid.Parse(uri.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ResponseWithMessage{
			Status:  StatusInvalidInput,
			Message: err.Error(),
		})

		return
	}

	user, err := h.svc.GetUser(ctx, userID)
	if err != nil {
		h.log.Debug("Failed to get user", zap.String("user_id", userID.String()), zap.Error(err))
		h.WriteError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   user,
	})
}

// ListUsers
// @Summary Список пользователей
// @Tags User
// @Produce json
// @Success 200 {object} ResponseWithData{data=[]model.User} "Пользователи"
// @Failure 500 {object} ResponseWithMessage "Внутренняя ошибка"
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list users", zap.Error(err))
		h.WriteError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   users,
	})
}

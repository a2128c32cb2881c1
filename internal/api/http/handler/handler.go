package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"withdrawal-service/internal/apperrors"
)

const (
	StatusErr           = "error"
	StatusSuccess       = "success"
	StatusNotAvailable  = "not available"
	StatusOK            = "ok"
	StatusInvalidInput  = "invalid_input"
	StatusInternalError = "internal_error"
)

type BaseHandler struct{}

// WriteError maps a service error onto an HTTP status and a response body.
func (h *BaseHandler) WriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidAmount),
		errors.Is(err, apperrors.ErrInvalidExecuteAt),
		errors.Is(err, apperrors.ErrAmountExceedsLimit),
		errors.Is(err, apperrors.ErrPaymentMethodNotOwned):
		c.JSON(http.StatusBadRequest, ResponseWithMessage{
			Status:  StatusInvalidInput,
			Message: err.Error(),
		})
	case errors.Is(err, apperrors.ErrUserDoesNotExist),
		errors.Is(err, apperrors.ErrPaymentMethodDoesNotExist),
		errors.Is(err, apperrors.ErrWithdrawalDoesNotExist):
		c.JSON(http.StatusNotFound, ResponseWithMessage{
			Status:  StatusErr,
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, ResponseWithMessage{
			Status:  StatusInternalError,
			Message: "internal server error",
		})
	}
}

// ResponseWithData
// @Description Общий ответ success/error, содержащий произвольные данные.
type ResponseWithData struct {
	Status string `json:"status"` // Результат запроса
	Data   any    `json:"data"`   // Объект полезной нагрузки
} // @Name _ResponseWithData

// ResponseWithMessage
// @Description Общий простой ответ, который передает только понятное для человека сообщение.
type ResponseWithMessage struct {
	Status  string `json:"status"`  // Результат запроса
	Message string `json:"message"` // Человеко-читаемое сообщение
} // @Name _ResponseWithMessage

func NoMethod(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, ResponseWithMessage{
		Status:  StatusNotAvailable,
		Message: "method not allowed on this endpoint",
	})
}

func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, ResponseWithMessage{
		Status:  StatusNotAvailable,
		Message: "page not found",
	})
}

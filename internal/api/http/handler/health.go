package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HealthService interface {
	IsOK(ctx context.Context) (bool, error)
}

type HealthHandler struct {
	BaseHandler

	log *zap.Logger
	svc HealthService
}

func NewHealthHandler(log *zap.Logger, svc HealthService) *HealthHandler {
	return &HealthHandler{
		BaseHandler: BaseHandler{},
		log:         log,
		svc:         svc,
	}
}

// Ping
// @Summary Проверка здоровья сервиса.
// @Description Возвращает “pong”.
// @Tags Health
// @Produce json
// @Success 200 {object} ResponseWithMessage "Success"
// @Router /health/ping [get]
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, ResponseWithMessage{
		Status:  StatusSuccess,
		Message: "pong",
	})
}

// Health
// @Summary Проверка доступности зависимостей.
// @Description База данных, Redis при включённом кэше и брокер outbox канала.
// @Tags Health
// @Produce json
// @Success 200 {object} ResponseWithMessage "Dependencies are reachable"
// @Failure 503 {object} ResponseWithMessage "Unreachable dependencies"
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	if _, err := h.svc.IsOK(ctx); err != nil {
		h.log.Warn("Health check failed", zap.Error(err))

		c.JSON(http.StatusServiceUnavailable, ResponseWithMessage{
			Status:  StatusErr,
			Message: err.Error(),
		})

		return
	}

	c.JSON(http.StatusOK, ResponseWithMessage{
		Status:  StatusOK,
		Message: "dependencies are reachable",
	})
}

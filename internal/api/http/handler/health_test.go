package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) IsOK(ctx context.Context) (bool, error) {
	args := m.Called(ctx)

	return args.Bool(0), args.Error(1)
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := new(MockHealthService)
	h := NewHealthHandler(zap.NewNop(), svc)

	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/health/ping", h.Ping)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")

	svc.On("IsOK", mock.Anything).Return(true, nil).Once()

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	svc.On("IsOK", mock.Anything).Return(false, errors.New("redis is unreachable: connection refused")).Once()

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis is unreachable")
}

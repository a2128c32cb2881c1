package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"withdrawal-service/internal/apperrors"
	"withdrawal-service/internal/model"
)

type MockWithdrawalService struct {
	mock.Mock
}

func (m *MockWithdrawalService) Submit(ctx context.Context, req model.CreateWithdrawalRequest) (*model.WithdrawalView, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*model.WithdrawalView), args.Error(1)
}

func (m *MockWithdrawalService) GetWithdrawal(ctx context.Context, id uuid.UUID) (*model.WithdrawalView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*model.WithdrawalView), args.Error(1)
}

func (m *MockWithdrawalService) ListWithdrawals(ctx context.Context) ([]*model.WithdrawalView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*model.WithdrawalView), args.Error(1)
}

func (m *MockWithdrawalService) ListWithdrawalEvents(ctx context.Context, id uuid.UUID) ([]*model.OutboxEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*model.OutboxEvent), args.Error(1)
}

func newWithdrawalRouter(svc WithdrawalService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewWithdrawalHandler(zap.NewNop(), svc)

	r := gin.New()
	r.POST("/withdrawals", h.CreateWithdrawal)
	r.GET("/withdrawals", h.ListWithdrawals)
	r.GET("/withdrawals/:withdrawal_id", h.GetWithdrawal)
	r.GET("/withdrawals/:withdrawal_id/events", h.ListWithdrawalEvents)

	return r
}

func postWithdrawal(t *testing.T, r *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/withdrawals", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func validRequest() model.CreateWithdrawalRequest {
	return model.CreateWithdrawalRequest{
		UserID:          uuid.NewString(),
		PaymentMethodID: uuid.NewString(),
		Amount:          "100.00",
		ExecuteAt:       model.ExecuteAtASAP,
	}
}

func TestWithdrawalHandler_CreateWithdrawal(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		svc := new(MockWithdrawalService)
		r := newWithdrawalRouter(svc)
		req := validRequest()

		view := &model.WithdrawalView{
			Kind: model.WithdrawalKindImmediate,
			Withdrawal: &model.Withdrawal{
				ID:     uuid.New(),
				Amount: decimal.RequireFromString(req.Amount),
				Status: model.WithdrawalStatusPending,
			},
		}

		svc.On("Submit", mock.Anything, req).Return(view, nil).Once()

		w := postWithdrawal(t, r, req)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Status string `json:"status"`
			Data   struct {
				ID     string `json:"id"`
				Kind   string `json:"kind"`
				Status string `json:"status"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		assert.Equal(t, StatusSuccess, resp.Status)
		assert.Equal(t, view.ID.String(), resp.Data.ID)
		assert.Equal(t, "IMMEDIATE", resp.Data.Kind)
		assert.Equal(t, "PENDING", resp.Data.Status)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := new(MockWithdrawalService)
		r := newWithdrawalRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/withdrawals", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("missing field", func(t *testing.T) {
		svc := new(MockWithdrawalService)
		r := newWithdrawalRouter(svc)
		req := validRequest()
		req.ExecuteAt = ""

		w := postWithdrawal(t, r, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"invalid amount", apperrors.ErrInvalidAmount, http.StatusBadRequest},
		{"above limit", apperrors.ErrAmountExceedsLimit, http.StatusBadRequest},
		{"not owned", apperrors.ErrPaymentMethodNotOwned, http.StatusBadRequest},
		{"bad execute at", apperrors.ErrInvalidExecuteAt, http.StatusBadRequest},
		{"unknown user", fmt.Errorf("failed to select user: %w", apperrors.ErrUserDoesNotExist), http.StatusNotFound},
		{"unknown payment method", apperrors.ErrPaymentMethodDoesNotExist, http.StatusNotFound},
		{"store down", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockWithdrawalService)
			r := newWithdrawalRouter(svc)

			svc.On("Submit", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			w := postWithdrawal(t, r, validRequest())
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestWithdrawalHandler_GetWithdrawal(t *testing.T) {
	svc := new(MockWithdrawalService)
	r := newWithdrawalRouter(svc)

	found := uuid.New()
	missing := uuid.New()

	svc.On("GetWithdrawal", mock.Anything, found).Return(&model.WithdrawalView{
		Kind:       model.WithdrawalKindScheduled,
		Withdrawal: &model.Withdrawal{ID: found, Status: model.WithdrawalStatusProcessing},
	}, nil)
	svc.On("GetWithdrawal", mock.Anything, missing).Return(nil, apperrors.ErrWithdrawalDoesNotExist)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/withdrawals/"+found.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SCHEDULED")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/withdrawals/"+missing.String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/withdrawals/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWithdrawalHandler_ListWithdrawals(t *testing.T) {
	svc := new(MockWithdrawalService)
	r := newWithdrawalRouter(svc)

	svc.On("ListWithdrawals", mock.Anything).Return([]*model.WithdrawalView{
		{Kind: model.WithdrawalKindImmediate, Withdrawal: &model.Withdrawal{ID: uuid.New()}},
		{Kind: model.WithdrawalKindScheduled, Withdrawal: &model.Withdrawal{ID: uuid.New()}},
	}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/withdrawals", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
}

func TestWithdrawalHandler_ListWithdrawalEvents(t *testing.T) {
	svc := new(MockWithdrawalService)
	r := newWithdrawalRouter(svc)

	found := &model.Withdrawal{ID: uuid.New(), Status: model.WithdrawalStatusProcessing}
	missing := uuid.New()

	event := model.NewOutboxEvent(model.WithdrawalKindImmediate, found, time.Now())
	event.EventStatus = model.EventStatusSent

	svc.On("ListWithdrawalEvents", mock.Anything, found.ID).Return([]*model.OutboxEvent{event}, nil)
	svc.On("ListWithdrawalEvents", mock.Anything, missing).Return(nil, apperrors.ErrWithdrawalDoesNotExist)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/withdrawals/"+found.ID.String()+"/events", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			WithdrawalID string `json:"withdrawalId"`
			Status       string `json:"status"`
			EventStatus  string `json:"eventStatus"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, found.ID.String(), resp.Data[0].WithdrawalID)
	assert.Equal(t, "PROCESSING", resp.Data[0].Status)
	assert.Equal(t, "SENT", resp.Data[0].EventStatus)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/withdrawals/"+missing.String()+"/events", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/withdrawals/not-a-uuid/events", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

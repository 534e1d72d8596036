package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/segyhp/claimant-engine/internal/domain"
	"github.com/segyhp/claimant-engine/pkg/response"
)

const defaultTimeout = time.Second

type mockTrigger struct {
	mock.Mock
}

func (m *mockTrigger) RunContext(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockPendingCounter struct {
	mock.Mock
}

func (m *mockPendingCounter) PendingCounts(ctx context.Context) (map[domain.MessageType]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.MessageType]int), args.Error(1)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name           string
		checks         []Check
		expectedStatus int
		expectedChecks map[string]any
	}{
		{
			name:           "no dependencies",
			expectedStatus: http.StatusOK,
			expectedChecks: map[string]any{},
		},
		{
			name: "all dependencies reachable",
			checks: []Check{
				{Name: "database", Ping: func(ctx context.Context) error { return nil }},
				{Name: "redis", Ping: func(ctx context.Context) error { return nil }},
			},
			expectedStatus: http.StatusOK,
			expectedChecks: map[string]any{"database": "ok", "redis": "ok"},
		},
		{
			name: "redis unreachable",
			checks: []Check{
				{Name: "database", Ping: func(ctx context.Context) error { return nil }},
				{Name: "redis", Ping: func(ctx context.Context) error { return errors.New("connection refused") }},
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedChecks: map[string]any{"database": "ok", "redis": "failed: connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(defaultTimeout, tt.checks...)
			w := httptest.NewRecorder()

			h.Ready(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decodeBody(t, w)
			data, ok := body.Data.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.expectedChecks, data["checks"])
		})
	}
}

func TestHealthHandler_Health(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler(defaultTimeout).Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeBody(t, w).Success)
}

func TestMessagesHandler_Process(t *testing.T) {
	tests := []struct {
		name           string
		runErr         error
		expectedStatus int
	}{
		{name: "dispatch ran", expectedStatus: http.StatusAccepted},
		{name: "dispatch failed", runErr: errors.New("loading MAKE_PAYMENT messages"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger := new(mockTrigger)
			trigger.On("RunContext", mock.Anything).Return(tt.runErr).Once()
			h := NewMessagesHandler(trigger, new(mockPendingCounter), zap.NewNop())
			w := httptest.NewRecorder()

			h.Process(w, httptest.NewRequest(http.MethodPost, "/api/v1/messages/process", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			trigger.AssertExpectations(t)
		})
	}
}

func TestMessagesHandler_ProcessOutlivesRequest(t *testing.T) {
	reqCtx, cancelRequest := context.WithCancel(context.Background())
	defer cancelRequest()

	var runErr error
	trigger := new(mockTrigger)
	trigger.On("RunContext", mock.Anything).Run(func(args mock.Arguments) {
		// the caller disconnects while the batch is being processed
		cancelRequest()
		runErr = args.Get(0).(context.Context).Err()
	}).Return(nil).Once()
	h := NewMessagesHandler(trigger, new(mockPendingCounter), zap.NewNop())
	w := httptest.NewRecorder()

	h.Process(w, httptest.NewRequest(http.MethodPost, "/api/v1/messages/process", nil).WithContext(reqCtx))

	assert.NoError(t, runErr)
	assert.Equal(t, http.StatusAccepted, w.Code)
	trigger.AssertExpectations(t)
}

func TestMessagesHandler_Pending(t *testing.T) {
	t.Run("lists every type", func(t *testing.T) {
		pending := new(mockPendingCounter)
		pending.On("PendingCounts", mock.Anything).Return(map[domain.MessageType]int{
			domain.MessageTypeMakePayment: 3,
		}, nil).Once()
		h := NewMessagesHandler(new(mockTrigger), pending, zap.NewNop())
		w := httptest.NewRecorder()

		h.Pending(w, httptest.NewRequest(http.MethodGet, "/api/v1/messages/pending", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, map[string]any{
			"DETERMINE_ENTITLEMENT": float64(0),
			"MAKE_PAYMENT":          float64(3),
			"REPORT_CLAIM":          float64(0),
			"SEND_EMAIL":            float64(0),
		}, decodeBody(t, w).Data)
	})

	t.Run("store failure", func(t *testing.T) {
		pending := new(mockPendingCounter)
		pending.On("PendingCounts", mock.Anything).Return(nil, errors.New("boom")).Once()
		h := NewMessagesHandler(new(mockTrigger), pending, zap.NewNop())
		w := httptest.NewRecorder()

		h.Pending(w, httptest.NewRequest(http.MethodGet, "/api/v1/messages/pending", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "boom", decodeBody(t, w).Error)
	})
}

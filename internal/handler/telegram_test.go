package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/cclient/license-server-go/internal/model"
	"github.com/cclient/license-server-go/internal/notify"
	"github.com/cclient/license-server-go/internal/service"
)

type mockResponder struct {
	mock.Mock
}

func (m *mockResponder) AnswerCallback(ctx context.Context, callbackQueryID, text string) error {
	args := m.Called(ctx, callbackQueryID, text)
	return args.Error(0)
}

func (m *mockResponder) EditMessage(ctx context.Context, chatID, messageID int64, text string) error {
	args := m.Called(ctx, chatID, messageID, text)
	return args.Error(0)
}

func newTestTelegramHandler() (*TelegramHandler, *mockAuthRequestRepo, *mockResponder) {
	authRepo := new(mockAuthRequestRepo)
	responder := new(mockResponder)

	codeService := service.NewAccessCodeService(new(mockAccessCodeRepo), new(mockBanChecker), new(mockSubscriptionChecker))
	authService := service.NewAuthRequestService(authRepo, codeService, notify.NopNotifier{}, 5*time.Minute)

	return NewTelegramHandler(authService, responder), authRepo, responder
}

func TestParseAuthCallback(t *testing.T) {
	tests := []struct {
		name          string
		data          string
		wantDecision  model.AuthDecision
		wantRequestID string
		wantOK        bool
	}{
		{
			name:          "approve payload",
			data:          "auth_yes_abc123",
			wantDecision:  model.DecisionApproved,
			wantRequestID: "abc123",
			wantOK:        true,
		},
		{
			name:          "deny payload",
			data:          "auth_no_abc123",
			wantDecision:  model.DecisionDenied,
			wantRequestID: "abc123",
			wantOK:        true,
		},
		{
			name:          "request id containing underscores survives",
			data:          "auth_yes_req_with_underscores",
			wantDecision:  model.DecisionApproved,
			wantRequestID: "req_with_underscores",
			wantOK:        true,
		},
		{
			name:   "missing request id",
			data:   "auth_yes_",
			wantOK: false,
		},
		{
			name:   "unknown verb",
			data:   "auth_maybe_abc123",
			wantOK: false,
		},
		{
			name:   "unrelated payload",
			data:   "menu_open",
			wantOK: false,
		},
		{
			name:   "empty payload",
			data:   "",
			wantOK: false,
		},
		{
			name:   "bare prefix",
			data:   "auth_",
			wantOK: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision, requestID, ok := parseAuthCallback(tc.data)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantDecision, decision)
				assert.Equal(t, tc.wantRequestID, requestID)
			}
		})
	}
}

func TestTelegramHandler_Webhook(t *testing.T) {
	t.Run("approve callback resolves the request and rewrites the prompt", func(t *testing.T) {
		handler, authRepo, responder := newTestTelegramHandler()

		ar := &model.AuthRequest{
			RequestID: "req-1",
			AccountID: "acc-1",
			Username:  "neo",
			Status:    model.AuthStatusSent,
		}
		authRepo.On("FindByRequestID", mock.Anything, "req-1").Return(ar, nil)
		authRepo.On("Resolve", mock.Anything, "req-1", model.DecisionApproved, mock.Anything).Return(true, nil)
		responder.On("AnswerCallback", mock.Anything, "cb-1", "Login approved").Return(nil)
		responder.On("EditMessage", mock.Anything, int64(99), int64(42), "Login attempt by neo\n\nApproved").Return(nil)

		body := bytes.NewBufferString(`{
			"callback_query": {
				"id": "cb-1",
				"data": "auth_yes_req-1",
				"message": {"message_id": 42, "text": "Login attempt by neo", "chat": {"id": 99}}
			}
		}`)
		req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", body)
		rec := httptest.NewRecorder()

		handler.Webhook(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"ok":true`)
		authRepo.AssertExpectations(t)
		responder.AssertExpectations(t)
	})

	t.Run("deny callback marks the prompt denied", func(t *testing.T) {
		handler, authRepo, responder := newTestTelegramHandler()

		ar := &model.AuthRequest{
			RequestID: "req-2",
			AccountID: "acc-1",
			Username:  "neo",
			Status:    model.AuthStatusSent,
		}
		authRepo.On("FindByRequestID", mock.Anything, "req-2").Return(ar, nil)
		authRepo.On("Resolve", mock.Anything, "req-2", model.DecisionDenied, mock.Anything).Return(true, nil)
		responder.On("AnswerCallback", mock.Anything, "cb-2", "Login denied").Return(nil)
		responder.On("EditMessage", mock.Anything, int64(99), int64(43), "Login attempt by neo\n\nDenied").Return(nil)

		body := bytes.NewBufferString(`{
			"callback_query": {
				"id": "cb-2",
				"data": "auth_no_req-2",
				"message": {"message_id": 43, "text": "Login attempt by neo", "chat": {"id": 99}}
			}
		}`)
		req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", body)
		rec := httptest.NewRecorder()

		handler.Webhook(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		authRepo.AssertExpectations(t)
		responder.AssertExpectations(t)
	})

	t.Run("stale button press is acknowledged without resolving", func(t *testing.T) {
		handler, authRepo, responder := newTestTelegramHandler()

		ar := &model.AuthRequest{
			RequestID: "req-3",
			AccountID: "acc-1",
			Username:  "neo",
			Status:    model.AuthStatusCompleted,
		}
		authRepo.On("FindByRequestID", mock.Anything, "req-3").Return(ar, nil)
		responder.On("AnswerCallback", mock.Anything, "cb-3", "Request not found or no longer valid").Return(nil)

		body := bytes.NewBufferString(`{
			"callback_query": {
				"id": "cb-3",
				"data": "auth_yes_req-3",
				"message": {"message_id": 44, "text": "Login attempt by neo", "chat": {"id": 99}}
			}
		}`)
		req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", body)
		rec := httptest.NewRecorder()

		handler.Webhook(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		authRepo.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		responder.AssertNotCalled(t, "EditMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		responder.AssertExpectations(t)
	})

	t.Run("non-callback updates are acknowledged and dropped", func(t *testing.T) {
		handler, authRepo, responder := newTestTelegramHandler()

		body := bytes.NewBufferString(`{"message": {"text": "hello"}}`)
		req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", body)
		rec := httptest.NewRecorder()

		handler.Webhook(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"ok":true`)
		authRepo.AssertExpectations(t)
		responder.AssertExpectations(t)
	})

	t.Run("returns 400 when request body is invalid", func(t *testing.T) {
		handler, _, _ := newTestTelegramHandler()

		body := bytes.NewBufferString(`{invalid json}`)
		req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", body)
		rec := httptest.NewRecorder()

		handler.Webhook(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
	})
}

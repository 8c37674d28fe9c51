package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cclient/license-server-go/internal/audit"
	apperrors "github.com/cclient/license-server-go/internal/errors"
	"github.com/cclient/license-server-go/internal/model"
	"github.com/cclient/license-server-go/internal/service"
)

// CallbackResponder is the outbound half of the webhook exchange:
// acknowledge the button press and rewrite the prompt message.
type CallbackResponder interface {
	AnswerCallback(ctx context.Context, callbackQueryID, text string) error
	EditMessage(ctx context.Context, chatID, messageID int64, text string) error
}

// TelegramHandler receives bot webhook updates. Only inline-keyboard
// callbacks with auth_yes_/auth_no_ payloads matter; everything else is
// acknowledged and dropped, since Telegram retries non-200 responses.
type TelegramHandler struct {
	authService *service.AuthRequestService
	responder   CallbackResponder
}

func NewTelegramHandler(authService *service.AuthRequestService, responder CallbackResponder) *TelegramHandler {
	return &TelegramHandler{
		authService: authService,
		responder:   responder,
	}
}

type telegramUpdate struct {
	CallbackQuery *struct {
		ID      string `json:"id"`
		Data    string `json:"data"`
		Message *struct {
			MessageID int64  `json:"message_id"`
			Text      string `json:"text"`
			Chat      struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
	} `json:"callback_query"`
}

// POST /telegram/webhook
func (h *TelegramHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var update telegramUpdate
	if err := decodeBody(r, &update); err != nil {
		writeError(w, err)
		return
	}

	if update.CallbackQuery == nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	cq := update.CallbackQuery
	decision, requestID, ok := parseAuthCallback(cq.Data)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	ctx := r.Context()

	err := h.authService.Resolve(ctx, requestID, decision)
	switch {
	case err == nil:
		audit.Log(ctx, audit.Event{
			Type:    audit.EventAuthResolve,
			Details: map[string]interface{}{"requestId": requestID, "decision": string(decision)},
		})
		h.respond(ctx, cq.ID, decisionAck(decision))
		if cq.Message != nil {
			marker := "Denied"
			if decision == model.DecisionApproved {
				marker = "Approved"
			}
			if editErr := h.responder.EditMessage(ctx, cq.Message.Chat.ID, cq.Message.MessageID, cq.Message.Text+"\n\n"+marker); editErr != nil {
				log.Warn().Err(editErr).Str("requestId", requestID).Msg("failed to edit prompt message")
			}
		}
	case apperrors.HasCode(err, apperrors.ErrCodeNotFound),
		apperrors.HasCode(err, apperrors.ErrCodeAlreadyTerminal):
		// Stale button press on a superseded or expired request.
		h.respond(ctx, cq.ID, "Request not found or no longer valid")
	default:
		log.Error().Err(err).Str("requestId", requestID).Msg("failed to resolve auth request")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *TelegramHandler) respond(ctx context.Context, callbackQueryID, text string) {
	if err := h.responder.AnswerCallback(ctx, callbackQueryID, text); err != nil {
		log.Warn().Err(err).Msg("failed to answer callback query")
	}
}

// parseAuthCallback extracts the decision and request id from an
// inline-keyboard payload of the form auth_yes_<id> or auth_no_<id>.
func parseAuthCallback(data string) (model.AuthDecision, string, bool) {
	if !strings.HasPrefix(data, "auth_") {
		return "", "", false
	}
	parts := strings.SplitN(data, "_", 3)
	if len(parts) != 3 || parts[2] == "" {
		return "", "", false
	}
	switch parts[1] {
	case "yes":
		return model.DecisionApproved, parts[2], true
	case "no":
		return model.DecisionDenied, parts[2], true
	default:
		return "", "", false
	}
}

func decisionAck(decision model.AuthDecision) string {
	if decision == model.DecisionApproved {
		return "Login approved"
	}
	return "Login denied"
}

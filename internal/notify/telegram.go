package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	telegramAPIBase = "https://api.telegram.org"
	requestTimeout  = 5 * time.Second
)

// TelegramNotifier sends approval prompts to the account's Telegram chat.
// The account id in this system is the owner's chat id.
type TelegramNotifier struct {
	token  string
	client *http.Client
}

func NewTelegramNotifier(token string) *TelegramNotifier {
	return &TelegramNotifier{
		token: token,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

func (t *TelegramNotifier) SendApprovalPrompt(ctx context.Context, accountID string, prompt ApprovalPrompt) error {
	location := prompt.Location
	if location == "" {
		location = "unknown"
	}

	text := fmt.Sprintf(
		"Login request:\n\nUser: %s\nLocation: %s\n\nIs this you?",
		prompt.Username, location,
	)

	payload := map[string]any{
		"chat_id": accountID,
		"text":    text,
		"reply_markup": map[string]any{
			"inline_keyboard": [][]map[string]string{{
				{"text": "Yes, it's me", "callback_data": "auth_yes_" + prompt.RequestID},
				{"text": "No, deny", "callback_data": "auth_no_" + prompt.RequestID},
			}},
		},
	}

	return t.call(ctx, "sendMessage", payload)
}

// AnswerCallback acknowledges an inline-button press so the owner's client
// stops showing a spinner.
func (t *TelegramNotifier) AnswerCallback(ctx context.Context, callbackQueryID, text string) error {
	return t.call(ctx, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackQueryID,
		"text":              text,
	})
}

// EditMessage replaces the prompt text after a decision so the buttons
// cannot be pressed again meaningfully.
func (t *TelegramNotifier) EditMessage(ctx context.Context, chatID int64, messageID int64, text string) error {
	return t.call(ctx, "editMessageText", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	})
}

func (t *TelegramNotifier) call(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", telegramAPIBase, t.token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := t.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().
			Err(err).
			Str("method", method).
			Dur("elapsed", elapsed).
			Msg("telegram api call error")
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Str("method", method).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("telegram api call failed")
		return fmt.Errorf("telegram %s: status %d", method, resp.StatusCode)
	}

	log.Debug().
		Str("method", method).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("telegram api call ok")

	return nil
}

var _ Notifier = (*TelegramNotifier)(nil)

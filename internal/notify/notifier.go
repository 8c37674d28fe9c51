package notify

import "context"

// ApprovalPrompt is the payload rendered into the owner's approval message.
type ApprovalPrompt struct {
	RequestID string
	Username  string
	Location  string
}

// Notifier delivers an approval prompt to an account owner. Delivery is
// fire-and-forget: the auth request state machine never awaits the human
// decision inline, it only learns the decision through a later callback.
type Notifier interface {
	SendApprovalPrompt(ctx context.Context, accountID string, prompt ApprovalPrompt) error
}

// NopNotifier is used when no bot token is configured. Requests stay
// pending and either get resolved through the callback endpoint or expire.
type NopNotifier struct{}

func (NopNotifier) SendApprovalPrompt(ctx context.Context, accountID string, prompt ApprovalPrompt) error {
	return nil
}

func (NopNotifier) AnswerCallback(ctx context.Context, callbackQueryID, text string) error {
	return nil
}

func (NopNotifier) EditMessage(ctx context.Context, chatID, messageID int64, text string) error {
	return nil
}

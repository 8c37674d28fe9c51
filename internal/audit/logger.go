package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventLicenseRegister   EventType = "license_register"
	EventLicenseVerify     EventType = "license_verify"
	EventLicenseLogout     EventType = "license_logout"
	EventCodeIssue         EventType = "code_issue"
	EventCodeUnlink        EventType = "code_unlink"
	EventAuthRequestCreate EventType = "auth_request_create"
	EventAuthResolve       EventType = "auth_resolve"
	EventSubscriptionGrant EventType = "subscription_grant"
	EventSubscriptionClaw  EventType = "subscription_clawback"
	EventBan               EventType = "ban"
	EventUnban             EventType = "unban"
	EventSweep             EventType = "retention_sweep"
	EventAuthFailure       EventType = "auth_failure"
)

type Event struct {
	Type      EventType
	AccountID string
	DeviceID  string
	Actor     string
	IP        string
	Details   map[string]interface{}
}

// Log emits a structured security/audit line. These lines are the
// operator-facing trail; the durable per-account history lives in the
// activity_log table.
func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "licensing").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.AccountID != "" {
		logger = logger.With().Str("account_id", event.AccountID).Logger()
	}
	if event.DeviceID != "" {
		logger = logger.With().Str("device_id", event.DeviceID).Logger()
	}
	if event.Actor != "" {
		logger = logger.With().Str("actor", event.Actor).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if len(event.Details) > 0 {
		logger = logger.With().Fields(event.Details).Logger()
	}

	logger.Info().Msg("audit event")
}

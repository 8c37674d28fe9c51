package model

type AuthRequestStatus string

const (
	AuthStatusPending   AuthRequestStatus = "pending"
	AuthStatusSent      AuthRequestStatus = "sent"
	AuthStatusApproved  AuthRequestStatus = "approved"
	AuthStatusDenied    AuthRequestStatus = "denied"
	AuthStatusExpired   AuthRequestStatus = "expired"
	AuthStatusCompleted AuthRequestStatus = "completed"

	// AuthStatusNotFound is a poll-only pseudo status: clients treat an
	// unknown request id as a terminal answer, not as a transport error.
	AuthStatusNotFound AuthRequestStatus = "not_found"
)

// Terminal reports whether the status can never change again.
// denied/approved are not terminal: they are promoted to completed on the
// next poll so the client observes the decision exactly once.
func (s AuthRequestStatus) Terminal() bool {
	return s == AuthStatusExpired || s == AuthStatusCompleted
}

// Resolvable reports whether a decision callback may still land on the
// request.
func (s AuthRequestStatus) Resolvable() bool {
	return s == AuthStatusPending || s == AuthStatusSent
}

type AuthDecision string

const (
	DecisionApproved AuthDecision = "approved"
	DecisionDenied   AuthDecision = "denied"
)

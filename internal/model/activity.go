package model

import "encoding/json"

// ActivityRecord is an append-only log entry for user and admin actions.
// Records are reaped by the retention sweeper after 30 days.
type ActivityRecord struct {
	ID        string          `db:"id" json:"id"`
	AccountID string          `db:"account_id" json:"accountId"`
	Action    string          `db:"action" json:"action"`
	Details   json.RawMessage `db:"details" json:"details,omitempty"`
	Timestamp int64           `db:"timestamp" json:"timestamp"`
}

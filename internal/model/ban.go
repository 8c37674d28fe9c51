package model

// Ban denies access for an account regardless of subscription state.
// An explicit unban flips is_active off and is sticky: the record never
// reactivates on its own.
type Ban struct {
	AccountID    string  `db:"account_id" json:"accountId"`
	Reason       string  `db:"reason" json:"reason"`
	BanStartTime int64   `db:"ban_start_time" json:"banStartTime"`
	BanEndTime   int64   `db:"ban_end_time" json:"banEndTime"`
	DurationDays int     `db:"duration_days" json:"durationDays"`
	BannedBy     string  `db:"banned_by" json:"bannedBy"`
	IsActive     bool    `db:"is_active" json:"isActive"`
	UnbannedAt   *int64  `db:"unbanned_at" json:"unbannedAt,omitempty"`
	UnbannedBy   *string `db:"unbanned_by" json:"unbannedBy,omitempty"`
}

// BanStatus is the result of an access-time ban check.
type BanStatus struct {
	Banned bool    `json:"banned"`
	Reason *string `json:"reason,omitempty"`
	Until  *int64  `json:"until,omitempty"`
}

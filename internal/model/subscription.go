package model

// Subscription is one paid/granted access interval. An account may hold
// many historical records; the one with the greatest end_time is
// authoritative while end_time > now. Grants stack onto the active record
// instead of replacing it.
type Subscription struct {
	ID            string  `db:"id" json:"id"`
	AccountID     string  `db:"account_id" json:"accountId"`
	StartTime     int64   `db:"start_time" json:"startTime"`
	EndTime       int64   `db:"end_time" json:"endTime"`
	CreatedAt     int64   `db:"created_at" json:"createdAt"`
	LastUpdatedAt int64   `db:"last_updated_at" json:"lastUpdatedAt"`
	GrantedBy     *string `db:"granted_by" json:"grantedBy,omitempty"`
	IsFreeTrial   bool    `db:"is_free_trial" json:"isFreeTrial"`
}

type CreateSubscriptionParams struct {
	AccountID   string
	StartTime   int64
	EndTime     int64
	GrantedBy   *string
	IsFreeTrial bool
}

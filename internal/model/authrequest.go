package model

// AuthRequest is an approval ticket routed to the account owner through the
// notification channel. Exactly one resolvable (pending/sent) request may
// exist per account; creating a newer one force-expires the older.
type AuthRequest struct {
	RequestID   string            `db:"request_id" json:"requestId"`
	AccountID   string            `db:"account_id" json:"accountId"`
	DeviceID    string            `db:"device_id" json:"deviceId"`
	Username    string            `db:"username" json:"username"`
	SourceIP    string            `db:"source_ip" json:"sourceIp"`
	AccessCode  *string           `db:"access_code" json:"accessCode,omitempty"`
	Location    *string           `db:"location" json:"location,omitempty"`
	Status      AuthRequestStatus `db:"status" json:"status"`
	CreatedAt   int64             `db:"created_at" json:"createdAt"`
	CompletedAt *int64            `db:"completed_at" json:"completedAt,omitempty"`
}

type CreateAuthRequestParams struct {
	RequestID  string
	AccountID  string
	DeviceID   string
	Username   string
	SourceIP   string
	AccessCode *string
	Location   *string
	CreatedAt  int64
}

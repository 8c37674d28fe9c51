package model

// AccessCode is a device-scoped numeric pairing code. At most one unlinked
// code exists per device; linking attaches the account identity chosen by
// the out-of-band approval flow.
type AccessCode struct {
	Code           string  `db:"code" json:"code"`
	DeviceID       string  `db:"device_id" json:"deviceId"`
	SourceIP       string  `db:"source_ip" json:"sourceIp"`
	IsLinked       bool    `db:"is_linked" json:"isLinked"`
	AccountID      *string `db:"account_id" json:"accountId,omitempty"`
	LinkedUsername *string `db:"linked_username" json:"linkedUsername,omitempty"`
	CreatedAt      int64   `db:"created_at" json:"createdAt"`
	LinkedAt       *int64  `db:"linked_at" json:"linkedAt,omitempty"`
}

type CreateAccessCodeParams struct {
	Code      string
	DeviceID  string
	SourceIP  string
	CreatedAt int64
}

// AccessStatus is the device-facing snapshot returned by a status poll:
// link state plus current subscription and ban gating.
type AccessStatus struct {
	IsLinked            bool    `json:"isLinked"`
	AccountID           *string `json:"accountId,omitempty"`
	HasSubscription     bool    `json:"hasSubscription"`
	SubscriptionEndTime int64   `json:"subscriptionEndTime"`
	Banned              bool    `json:"banned"`
	BanReason           *string `json:"banReason,omitempty"`
}

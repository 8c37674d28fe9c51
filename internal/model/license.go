package model

// License binds a purchased key to one account identity and, while in use,
// to a single device fingerprint. Timestamps are epoch milliseconds.
type License struct {
	ID              string  `db:"id" json:"id"`
	LicenseKey      string  `db:"license_key" json:"licenseKey"`
	Username        string  `db:"username" json:"username"`
	AccountID       string  `db:"account_id" json:"accountId"`
	Active          bool    `db:"active" json:"active"`
	CurrentDeviceID *string `db:"current_device_id" json:"currentDeviceId,omitempty"`
	CreatedAt       int64   `db:"created_at" json:"createdAt"`
	LastActiveAt    *int64  `db:"last_active_at" json:"lastActiveAt,omitempty"`
	LastLogoutAt    *int64  `db:"last_logout_at" json:"lastLogoutAt,omitempty"`
}

type CreateLicenseParams struct {
	LicenseKey string
	Username   string
	AccountID  string
	CreatedAt  int64
}

package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/cclient/license-server-go/internal/model"
)

type LicenseRepository interface {
	FindByKey(ctx context.Context, licenseKey string) (*model.License, error)
	Create(ctx context.Context, params model.CreateLicenseParams) (*model.License, error)
	BindDevice(ctx context.Context, id, deviceID string, now, staleCutoff int64) (bool, error)
	ClearDevice(ctx context.Context, id string, now int64) error
}

type licenseRepo struct {
	db *sqlx.DB
}

func NewLicenseRepository(db *sqlx.DB) LicenseRepository {
	return &licenseRepo{db: db}
}

func (r *licenseRepo) FindByKey(ctx context.Context, licenseKey string) (*model.License, error) {
	var lic model.License
	err := r.db.GetContext(ctx, &lic, `
		SELECT * FROM licenses WHERE license_key = $1
	`, licenseKey)
	return HandleNotFound(&lic, err)
}

func (r *licenseRepo) Create(ctx context.Context, params model.CreateLicenseParams) (*model.License, error) {
	var lic model.License
	err := r.db.GetContext(ctx, &lic, `
		INSERT INTO licenses (license_key, username, account_id, active, created_at)
		VALUES ($1, $2, $3, TRUE, $4)
		RETURNING *
	`, params.LicenseKey, params.Username, params.AccountID, params.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &lic, nil
}

// BindDevice is the store-side conditional write enforcing the
// single-active-device rule. The update lands only when the license is
// unbound, already bound to this device, or bound to a device whose last
// activity predates staleCutoff. A zero staleCutoff disables takeover.
func (r *licenseRepo) BindDevice(ctx context.Context, id, deviceID string, now, staleCutoff int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE licenses SET
			current_device_id = $2,
			last_active_at = $3
		WHERE id = $1
		  AND (current_device_id IS NULL
		       OR current_device_id = ''
		       OR current_device_id = $2
		       OR (last_active_at IS NOT NULL AND last_active_at < $4))
	`, id, deviceID, now, staleCutoff)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (r *licenseRepo) ClearDevice(ctx context.Context, id string, now int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE licenses SET
			current_device_id = NULL,
			last_logout_at = $2
		WHERE id = $1
	`, id, now)
	return err
}

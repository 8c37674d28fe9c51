package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/cclient/license-server-go/internal/model"
)

type AccessCodeRepository interface {
	FindByCode(ctx context.Context, code string) (*model.AccessCode, error)
	FindUnlinkedByDeviceID(ctx context.Context, deviceID string) (*model.AccessCode, error)
	Create(ctx context.Context, params model.CreateAccessCodeParams) (*model.AccessCode, error)
	Link(ctx context.Context, code, accountID, username string, now int64) (bool, error)
	Unlink(ctx context.Context, code string) error
	DeleteUnlinkedOlderThan(ctx context.Context, cutoff int64, limit int) (int64, error)
}

type accessCodeRepo struct {
	db *sqlx.DB
}

func NewAccessCodeRepository(db *sqlx.DB) AccessCodeRepository {
	return &accessCodeRepo{db: db}
}

func (r *accessCodeRepo) FindByCode(ctx context.Context, code string) (*model.AccessCode, error) {
	var ac model.AccessCode
	err := r.db.GetContext(ctx, &ac, `
		SELECT * FROM access_codes WHERE code = $1
	`, code)
	return HandleNotFound(&ac, err)
}

// FindUnlinkedByDeviceID backs idempotent issuance: a device with an
// outstanding unlinked code gets the same code back. Uniqueness among
// unlinked codes per device is enforced by a partial unique index.
func (r *accessCodeRepo) FindUnlinkedByDeviceID(ctx context.Context, deviceID string) (*model.AccessCode, error) {
	var ac model.AccessCode
	err := r.db.GetContext(ctx, &ac, `
		SELECT * FROM access_codes
		WHERE device_id = $1 AND is_linked = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`, deviceID)
	return HandleNotFound(&ac, err)
}

func (r *accessCodeRepo) Create(ctx context.Context, params model.CreateAccessCodeParams) (*model.AccessCode, error) {
	var ac model.AccessCode
	err := r.db.GetContext(ctx, &ac, `
		INSERT INTO access_codes (code, device_id, source_ip, is_linked, created_at)
		VALUES ($1, $2, $3, FALSE, $4)
		RETURNING *
	`, params.Code, params.DeviceID, params.SourceIP, params.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ac, nil
}

func (r *accessCodeRepo) Link(ctx context.Context, code, accountID, username string, now int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE access_codes SET
			is_linked = TRUE,
			account_id = $2,
			linked_username = $3,
			linked_at = $4
		WHERE code = $1
	`, code, accountID, username, now)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (r *accessCodeRepo) Unlink(ctx context.Context, code string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE access_codes SET
			is_linked = FALSE,
			account_id = NULL,
			linked_username = NULL,
			linked_at = NULL
		WHERE code = $1
	`, code)
	return err
}

// Linked codes represent an active pairing and are never reaped.
func (r *accessCodeRepo) DeleteUnlinkedOlderThan(ctx context.Context, cutoff int64, limit int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM access_codes
		WHERE code IN (
			SELECT code FROM access_codes
			WHERE is_linked = FALSE AND created_at < $1
			LIMIT $2
		)
	`, cutoff, limit)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/cclient/license-server-go/internal/database"
	"github.com/cclient/license-server-go/internal/model"
)

type AuthRequestRepository interface {
	FindByRequestID(ctx context.Context, requestID string) (*model.AuthRequest, error)
	// SupersedeAndCreate expires every resolvable request for the account
	// and inserts the new pending one as a single atomic write.
	SupersedeAndCreate(ctx context.Context, params model.CreateAuthRequestParams) (*model.AuthRequest, error)
	MarkSent(ctx context.Context, requestID string) (bool, error)
	Resolve(ctx context.Context, requestID string, decision model.AuthDecision, now int64) (bool, error)
	Complete(ctx context.Context, requestID string, now int64) (bool, error)
	Expire(ctx context.Context, requestID string, now int64) (bool, error)
	ExpireResolvableOlderThan(ctx context.Context, cutoff, now int64, limit int) (int64, error)
	DeleteTerminalOlderThan(ctx context.Context, cutoff int64, limit int) (int64, error)
}

type authRequestRepo struct {
	db *database.DB
}

func NewAuthRequestRepository(db *database.DB) AuthRequestRepository {
	return &authRequestRepo{db: db}
}

func (r *authRequestRepo) FindByRequestID(ctx context.Context, requestID string) (*model.AuthRequest, error) {
	var ar model.AuthRequest
	err := r.db.GetContext(ctx, &ar, `
		SELECT * FROM auth_requests WHERE request_id = $1
	`, requestID)
	return HandleNotFound(&ar, err)
}

func (r *authRequestRepo) SupersedeAndCreate(ctx context.Context, params model.CreateAuthRequestParams) (*model.AuthRequest, error) {
	var ar model.AuthRequest
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE auth_requests SET
				status = 'expired',
				completed_at = $2
			WHERE account_id = $1 AND status IN ('pending', 'sent')
		`, params.AccountID, params.CreatedAt); err != nil {
			return err
		}

		return tx.GetContext(ctx, &ar, `
			INSERT INTO auth_requests
				(request_id, account_id, device_id, username, source_ip, access_code, location, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8)
			RETURNING *
		`, params.RequestID, params.AccountID, params.DeviceID, params.Username,
			params.SourceIP, params.AccessCode, params.Location, params.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &ar, nil
}

func (r *authRequestRepo) MarkSent(ctx context.Context, requestID string) (bool, error) {
	return r.conditionalUpdate(ctx, `
		UPDATE auth_requests SET status = 'sent'
		WHERE request_id = $1 AND status = 'pending'
	`, requestID)
}

// Resolve lands a human decision. The status guard makes duplicate
// callbacks no-ops: only the first decision on a resolvable request wins.
func (r *authRequestRepo) Resolve(ctx context.Context, requestID string, decision model.AuthDecision, now int64) (bool, error) {
	return r.conditionalUpdate(ctx, `
		UPDATE auth_requests SET
			status = $2,
			completed_at = $3
		WHERE request_id = $1 AND status IN ('pending', 'sent')
	`, requestID, string(decision), now)
}

func (r *authRequestRepo) Complete(ctx context.Context, requestID string, now int64) (bool, error) {
	return r.conditionalUpdate(ctx, `
		UPDATE auth_requests SET
			status = 'completed',
			completed_at = $2
		WHERE request_id = $1 AND status IN ('approved', 'denied')
	`, requestID, now)
}

func (r *authRequestRepo) Expire(ctx context.Context, requestID string, now int64) (bool, error) {
	return r.conditionalUpdate(ctx, `
		UPDATE auth_requests SET
			status = 'expired',
			completed_at = $2
		WHERE request_id = $1 AND status IN ('pending', 'sent')
	`, requestID, now)
}

// ExpireResolvableOlderThan is the terminal-by-age fallback: requests that
// were never polled again cannot expire lazily, so the sweeper forces them
// terminal once far past any legitimate resolution window.
func (r *authRequestRepo) ExpireResolvableOlderThan(ctx context.Context, cutoff, now int64, limit int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE auth_requests SET
			status = 'expired',
			completed_at = $2
		WHERE request_id IN (
			SELECT request_id FROM auth_requests
			WHERE status IN ('pending', 'sent') AND created_at < $1
			LIMIT $3
		)
	`, cutoff, now, limit)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *authRequestRepo) DeleteTerminalOlderThan(ctx context.Context, cutoff int64, limit int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM auth_requests
		WHERE request_id IN (
			SELECT request_id FROM auth_requests
			WHERE status NOT IN ('pending', 'sent') AND created_at < $1
			LIMIT $2
		)
	`, cutoff, limit)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *authRequestRepo) conditionalUpdate(ctx context.Context, query string, args ...interface{}) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

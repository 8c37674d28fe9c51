package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/cclient/license-server-go/internal/model"
)

type BanRepository interface {
	FindByAccount(ctx context.Context, accountID string) (*model.Ban, error)
	Upsert(ctx context.Context, ban model.Ban) (*model.Ban, error)
	Deactivate(ctx context.Context, accountID string, now int64, unbannedBy string) (bool, error)
}

type banRepo struct {
	db *sqlx.DB
}

func NewBanRepository(db *sqlx.DB) BanRepository {
	return &banRepo{db: db}
}

func (r *banRepo) FindByAccount(ctx context.Context, accountID string) (*model.Ban, error) {
	var ban model.Ban
	err := r.db.GetContext(ctx, &ban, `
		SELECT * FROM bans WHERE account_id = $1
	`, accountID)
	return HandleNotFound(&ban, err)
}

// Upsert replaces any prior ban for the account, including clearing the
// sticky unban fields of an earlier record.
func (r *banRepo) Upsert(ctx context.Context, ban model.Ban) (*model.Ban, error) {
	var out model.Ban
	err := r.db.GetContext(ctx, &out, `
		INSERT INTO bans
			(account_id, reason, ban_start_time, ban_end_time, duration_days, banned_by, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (account_id) DO UPDATE SET
			reason = EXCLUDED.reason,
			ban_start_time = EXCLUDED.ban_start_time,
			ban_end_time = EXCLUDED.ban_end_time,
			duration_days = EXCLUDED.duration_days,
			banned_by = EXCLUDED.banned_by,
			is_active = TRUE,
			unbanned_at = NULL,
			unbanned_by = NULL
		RETURNING *
	`, ban.AccountID, ban.Reason, ban.BanStartTime, ban.BanEndTime, ban.DurationDays, ban.BannedBy)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *banRepo) Deactivate(ctx context.Context, accountID string, now int64, unbannedBy string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE bans SET
			is_active = FALSE,
			unbanned_at = $2,
			unbanned_by = $3
		WHERE account_id = $1
	`, accountID, now, unbannedBy)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

package repository

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
)

type ActivityRepository interface {
	Record(ctx context.Context, accountID, action string, details json.RawMessage, timestamp int64) error
	DeleteOlderThan(ctx context.Context, cutoff int64, limit int) (int64, error)
}

type activityRepo struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Record(ctx context.Context, accountID, action string, details json.RawMessage, timestamp int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_log (account_id, action, details, timestamp)
		VALUES ($1, $2, $3, $4)
	`, accountID, action, details, timestamp)
	return err
}

func (r *activityRepo) DeleteOlderThan(ctx context.Context, cutoff int64, limit int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM activity_log
		WHERE id IN (
			SELECT id FROM activity_log
			WHERE timestamp < $1
			LIMIT $2
		)
	`, cutoff, limit)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

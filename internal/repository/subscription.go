package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/cclient/license-server-go/internal/model"
)

type SubscriptionRepository interface {
	FindLatestByAccount(ctx context.Context, accountID string) (*model.Subscription, error)
	FindActiveByAccount(ctx context.Context, accountID string, now int64) (*model.Subscription, error)
	Create(ctx context.Context, params model.CreateSubscriptionParams) (*model.Subscription, error)
	UpdateEndTime(ctx context.Context, id string, endTime, now int64) error
	DeleteEndedBefore(ctx context.Context, cutoff int64, limit int) (int64, error)
}

type subscriptionRepo struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

// FindLatestByAccount returns the record with the greatest end_time, which
// is the authoritative one whether or not it is still active.
func (r *subscriptionRepo) FindLatestByAccount(ctx context.Context, accountID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.GetContext(ctx, &sub, `
		SELECT * FROM subscriptions
		WHERE account_id = $1
		ORDER BY end_time DESC
		LIMIT 1
	`, accountID)
	return HandleNotFound(&sub, err)
}

func (r *subscriptionRepo) FindActiveByAccount(ctx context.Context, accountID string, now int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.GetContext(ctx, &sub, `
		SELECT * FROM subscriptions
		WHERE account_id = $1 AND end_time > $2
		ORDER BY end_time DESC
		LIMIT 1
	`, accountID, now)
	return HandleNotFound(&sub, err)
}

func (r *subscriptionRepo) Create(ctx context.Context, params model.CreateSubscriptionParams) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.GetContext(ctx, &sub, `
		INSERT INTO subscriptions
			(account_id, start_time, end_time, created_at, last_updated_at, granted_by, is_free_trial)
		VALUES ($1, $2, $3, $2, $2, $4, $5)
		RETURNING *
	`, params.AccountID, params.StartTime, params.EndTime, params.GrantedBy, params.IsFreeTrial)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepo) UpdateEndTime(ctx context.Context, id string, endTime, now int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET
			end_time = $2,
			last_updated_at = $3
		WHERE id = $1
	`, id, endTime, now)
	return err
}

// DeleteEndedBefore removes long-expired records. Strictly-before: a
// subscription whose end_time equals the cutoff is retained.
func (r *subscriptionRepo) DeleteEndedBefore(ctx context.Context, cutoff int64, limit int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM subscriptions
		WHERE id IN (
			SELECT id FROM subscriptions
			WHERE end_time < $1
			LIMIT $2
		)
	`, cutoff, limit)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

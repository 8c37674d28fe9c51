package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/cclient/license-server-go/internal/model"
)

type MessageRepository interface {
	Create(ctx context.Context, from, to, content string, timestamp int64) (*model.Message, error)
	FindByRecipient(ctx context.Context, to string) ([]model.Message, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListBroadcasts(ctx context.Context, limit int) ([]model.Broadcast, error)
	CreateBroadcast(ctx context.Context, content, createdBy string, createdAt int64) (*model.Broadcast, error)
}

type messageRepo struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Create(ctx context.Context, from, to, content string, timestamp int64) (*model.Message, error) {
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO messages (from_user, to_user, content, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, from, to, content, timestamp)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepo) FindByRecipient(ctx context.Context, to string) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM messages
		WHERE to_user = $1
		ORDER BY timestamp ASC
	`, to)
	return msgs, err
}

func (r *messageRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM messages WHERE id = $1
	`, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (r *messageRepo) ListBroadcasts(ctx context.Context, limit int) ([]model.Broadcast, error) {
	var bs []model.Broadcast
	err := r.db.SelectContext(ctx, &bs, `
		SELECT * FROM broadcasts
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	return bs, err
}

func (r *messageRepo) CreateBroadcast(ctx context.Context, content, createdBy string, createdAt int64) (*model.Broadcast, error) {
	var b model.Broadcast
	err := r.db.GetContext(ctx, &b, `
		INSERT INTO broadcasts (content, created_by, created_at)
		VALUES ($1, $2, $3)
		RETURNING *
	`, content, createdBy, createdAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/cclient/license-server-go/internal/errors"
	"github.com/cclient/license-server-go/internal/model"
)

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Create(ctx context.Context, from, to, content string, timestamp int64) (*model.Message, error) {
	args := m.Called(ctx, from, to, content, timestamp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *mockMessageRepo) FindByRecipient(ctx context.Context, to string) ([]model.Message, error) {
	args := m.Called(ctx, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *mockMessageRepo) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockMessageRepo) ListBroadcasts(ctx context.Context, limit int) ([]model.Broadcast, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Broadcast), args.Error(1)
}

func (m *mockMessageRepo) CreateBroadcast(ctx context.Context, content, createdBy string, createdAt int64) (*model.Broadcast, error) {
	args := m.Called(ctx, content, createdBy, createdAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Broadcast), args.Error(1)
}

func TestMessageSend(t *testing.T) {
	ctx := context.Background()
	now := int64(1_700_000_000_000)

	t.Run("stores a message", func(t *testing.T) {
		msgRepo := new(mockMessageRepo)
		svc := NewMessageService(msgRepo)
		svc.now = func() int64 { return now }

		msgRepo.On("Create", ctx, "alice", "bob", "hi", now).Return(&model.Message{ID: "msg-1"}, nil)

		msg, err := svc.Send(ctx, "alice", "bob", "hi")
		require.NoError(t, err)
		assert.Equal(t, "msg-1", msg.ID)
	})

	t.Run("requires sender, recipient, and content", func(t *testing.T) {
		svc := NewMessageService(new(mockMessageRepo))

		_, err := svc.Send(ctx, "", "bob", "hi")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingRequired))

		_, err = svc.Send(ctx, "alice", "", "hi")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingRequired))

		_, err = svc.Send(ctx, "alice", "bob", "")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingRequired))
	})
}

func TestMessageDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes an existing message", func(t *testing.T) {
		msgRepo := new(mockMessageRepo)
		svc := NewMessageService(msgRepo)

		msgRepo.On("Delete", ctx, "msg-1").Return(true, nil)

		require.NoError(t, svc.Delete(ctx, "msg-1"))
	})

	t.Run("not found when nothing was deleted", func(t *testing.T) {
		msgRepo := new(mockMessageRepo)
		svc := NewMessageService(msgRepo)

		msgRepo.On("Delete", ctx, "msg-1").Return(false, nil)

		err := svc.Delete(ctx, "msg-1")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	})
}

func TestBroadcasts(t *testing.T) {
	ctx := context.Background()

	t.Run("lists recent broadcasts", func(t *testing.T) {
		msgRepo := new(mockMessageRepo)
		svc := NewMessageService(msgRepo)

		msgRepo.On("ListBroadcasts", ctx, broadcastListLimit).Return([]model.Broadcast{{ID: "b-1"}}, nil)

		bs, err := svc.Broadcasts(ctx)
		require.NoError(t, err)
		assert.Len(t, bs, 1)
	})

	t.Run("broadcast requires content", func(t *testing.T) {
		svc := NewMessageService(new(mockMessageRepo))

		_, err := svc.CreateBroadcast(ctx, "", "admin")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingRequired))
	})
}

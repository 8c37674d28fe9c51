package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cclient/license-server-go/internal/config"
	apperrors "github.com/cclient/license-server-go/internal/errors"
	"github.com/cclient/license-server-go/internal/model"
)

func newBanService(banRepo *mockBanRepo, activityRepo *mockActivityRepo, now int64) *BanService {
	svc := NewBanService(banRepo, activityRepo)
	svc.now = func() int64 { return now }
	return svc
}

func TestBan(t *testing.T) {
	ctx := context.Background()
	now := int64(1_700_000_000_000)

	t.Run("bans for a fixed number of days", func(t *testing.T) {
		banRepo := new(mockBanRepo)
		activityRepo := new(mockActivityRepo)
		svc := newBanService(banRepo, activityRepo, now)

		banRepo.On("Upsert", ctx, mock.MatchedBy(func(b model.Ban) bool {
			return b.AccountID == "acct-1" &&
				b.IsActive &&
				b.BanStartTime == now &&
				b.BanEndTime == now+7*dayMillis
		})).Return(&model.Ban{AccountID: "acct-1", IsActive: true, BanEndTime: now + 7*dayMillis}, nil)
		activityRepo.On("Record", ctx, "acct-1", "account_banned", mock.Anything, now).Return(nil)

		ban, err := svc.Ban(ctx, "acct-1", 7, "chargeback", "admin")
		require.NoError(t, err)
		assert.True(t, ban.IsActive)
		banRepo.AssertExpectations(t)
	})

	t.Run("zero days means indefinite", func(t *testing.T) {
		banRepo := new(mockBanRepo)
		activityRepo := new(mockActivityRepo)
		svc := newBanService(banRepo, activityRepo, now)

		wantEnd := now + config.IndefiniteBanDuration.Milliseconds()
		banRepo.On("Upsert", ctx, mock.MatchedBy(func(b model.Ban) bool {
			return b.BanEndTime == wantEnd && b.DurationDays == 0
		})).Return(&model.Ban{AccountID: "acct-1", IsActive: true, BanEndTime: wantEnd}, nil)
		activityRepo.On("Record", ctx, "acct-1", "account_banned", mock.Anything, now).Return(nil)

		_, err := svc.Ban(ctx, "acct-1", 0, "fraud", "admin")
		require.NoError(t, err)
		banRepo.AssertExpectations(t)
	})

	t.Run("rejects negative duration", func(t *testing.T) {
		svc := newBanService(new(mockBanRepo), new(mockActivityRepo), now)

		_, err := svc.Ban(ctx, "acct-1", -1, "reason", "admin")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidDuration))
	})

	t.Run("requires a reason", func(t *testing.T) {
		svc := newBanService(new(mockBanRepo), new(mockActivityRepo), now)

		_, err := svc.Ban(ctx, "acct-1", 7, "", "admin")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingRequired))
	})
}

func TestUnban(t *testing.T) {
	ctx := context.Background()
	now := int64(1_700_000_000_000)

	t.Run("deactivates an active ban", func(t *testing.T) {
		banRepo := new(mockBanRepo)
		activityRepo := new(mockActivityRepo)
		svc := newBanService(banRepo, activityRepo, now)

		banRepo.On("Deactivate", ctx, "acct-1", now, "admin").Return(true, nil)
		activityRepo.On("Record", ctx, "acct-1", "account_unbanned", mock.Anything, now).Return(nil)

		require.NoError(t, svc.Unban(ctx, "acct-1", "admin"))
		banRepo.AssertExpectations(t)
	})

	t.Run("not found when no ban record exists", func(t *testing.T) {
		banRepo := new(mockBanRepo)
		svc := newBanService(banRepo, new(mockActivityRepo), now)

		banRepo.On("Deactivate", ctx, "acct-1", now, "admin").Return(false, nil)

		err := svc.Unban(ctx, "acct-1", "admin")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	})
}

func TestBanCheck(t *testing.T) {
	ctx := context.Background()
	now := int64(1_700_000_000_000)

	t.Run("active ban with future end time is banned", func(t *testing.T) {
		banRepo := new(mockBanRepo)
		svc := newBanService(banRepo, new(mockActivityRepo), now)

		banRepo.On("FindByAccount", ctx, "acct-1").Return(&model.Ban{
			AccountID:  "acct-1",
			Reason:     "abuse",
			IsActive:   true,
			BanEndTime: now + dayMillis,
		}, nil)

		status, err := svc.Check(ctx, "acct-1")
		require.NoError(t, err)
		assert.True(t, status.Banned)
		require.NotNil(t, status.Reason)
		assert.Equal(t, "abuse", *status.Reason)
	})

	t.Run("elapsed ban is not banned even while still active", func(t *testing.T) {
		banRepo := new(mockBanRepo)
		svc := newBanService(banRepo, new(mockActivityRepo), now)

		banRepo.On("FindByAccount", ctx, "acct-1").Return(&model.Ban{
			AccountID:  "acct-1",
			IsActive:   true,
			BanEndTime: now,
		}, nil)

		status, err := svc.Check(ctx, "acct-1")
		require.NoError(t, err)
		assert.False(t, status.Banned)
	})

	t.Run("deactivated ban is not banned regardless of end time", func(t *testing.T) {
		banRepo := new(mockBanRepo)
		svc := newBanService(banRepo, new(mockActivityRepo), now)

		banRepo.On("FindByAccount", ctx, "acct-1").Return(&model.Ban{
			AccountID:  "acct-1",
			IsActive:   false,
			BanEndTime: now + 365*dayMillis,
		}, nil)

		status, err := svc.Check(ctx, "acct-1")
		require.NoError(t, err)
		assert.False(t, status.Banned, "explicit unban is sticky")
	})

	t.Run("no record means not banned", func(t *testing.T) {
		banRepo := new(mockBanRepo)
		svc := newBanService(banRepo, new(mockActivityRepo), now)

		banRepo.On("FindByAccount", ctx, "acct-1").Return(nil, nil)

		status, err := svc.Check(ctx, "acct-1")
		require.NoError(t, err)
		assert.False(t, status.Banned)
	})
}

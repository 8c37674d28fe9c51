package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/cclient/license-server-go/internal/config"
	apperrors "github.com/cclient/license-server-go/internal/errors"
	"github.com/cclient/license-server-go/internal/model"
	"github.com/cclient/license-server-go/internal/repository"
)

// BanService is the ban registry. A ban denies access regardless of
// subscription state; an explicit unban is sticky and never reactivates.
type BanService struct {
	banRepo      repository.BanRepository
	activityRepo repository.ActivityRepository
	now          func() int64
}

func NewBanService(
	banRepo repository.BanRepository,
	activityRepo repository.ActivityRepository,
) *BanService {
	return &BanService{
		banRepo:      banRepo,
		activityRepo: activityRepo,
		now:          nowMillis,
	}
}

// Ban bans an account for durationDays. Zero means indefinite: the stored
// end time is pushed a century out so the uniform
// "is_active and ban_end_time > now" check applies without a second rule.
func (s *BanService) Ban(ctx context.Context, accountID string, durationDays int, reason, bannedBy string) (*model.Ban, error) {
	if accountID == "" {
		return nil, apperrors.MissingRequired("accountId")
	}
	if reason == "" {
		return nil, apperrors.MissingRequired("reason")
	}
	if durationDays < 0 {
		return nil, apperrors.InvalidDuration("durationDays must not be negative")
	}

	now := s.now()
	endTime := now + int64(durationDays)*dayMillis
	if durationDays == 0 {
		endTime = now + config.IndefiniteBanDuration.Milliseconds()
	}

	ban, err := s.banRepo.Upsert(ctx, model.Ban{
		AccountID:    accountID,
		Reason:       reason,
		BanStartTime: now,
		BanEndTime:   endTime,
		DurationDays: durationDays,
		BannedBy:     bannedBy,
		IsActive:     true,
	})
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	s.recordActivity(ctx, accountID, "account_banned", map[string]any{
		"reason":       reason,
		"durationDays": durationDays,
		"banEndTime":   endTime,
	})

	log.Info().
		Str("accountId", accountID).
		Int("durationDays", durationDays).
		Str("reason", reason).
		Msg("account banned")

	return ban, nil
}

func (s *BanService) Unban(ctx context.Context, accountID, unbannedBy string) error {
	if accountID == "" {
		return apperrors.MissingRequired("accountId")
	}

	ok, err := s.banRepo.Deactivate(ctx, accountID, s.now(), unbannedBy)
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	if !ok {
		return apperrors.NotFound("Ban")
	}

	s.recordActivity(ctx, accountID, "account_unbanned", nil)

	log.Info().Str("accountId", accountID).Msg("account unbanned")
	return nil
}

func (s *BanService) Check(ctx context.Context, accountID string) (model.BanStatus, error) {
	ban, err := s.banRepo.FindByAccount(ctx, accountID)
	if err != nil {
		return model.BanStatus{}, apperrors.StoreUnavailable(err)
	}
	if ban == nil || !ban.IsActive || ban.BanEndTime <= s.now() {
		return model.BanStatus{Banned: false}, nil
	}
	return model.BanStatus{
		Banned: true,
		Reason: &ban.Reason,
		Until:  &ban.BanEndTime,
	}, nil
}

func (s *BanService) recordActivity(ctx context.Context, accountID, action string, details map[string]any) {
	var data json.RawMessage
	if details != nil {
		data, _ = json.Marshal(details)
	}
	if err := s.activityRepo.Record(ctx, accountID, action, data, s.now()); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

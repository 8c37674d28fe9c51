package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/cclient/license-server-go/internal/errors"
	"github.com/cclient/license-server-go/internal/model"
	"github.com/cclient/license-server-go/internal/repository"
)

const dayMillis = int64(24 * time.Hour / time.Millisecond)

// SubscriptionService is the subscription-duration ledger. Grants stack:
// the new end time is counted from whichever is later, now or the current
// end, so paying before expiry never loses remaining days.
type SubscriptionService struct {
	subRepo      repository.SubscriptionRepository
	activityRepo repository.ActivityRepository
	now          func() int64
}

func NewSubscriptionService(
	subRepo repository.SubscriptionRepository,
	activityRepo repository.ActivityRepository,
) *SubscriptionService {
	return &SubscriptionService{
		subRepo:      subRepo,
		activityRepo: activityRepo,
		now:          nowMillis,
	}
}

type GrantOptions struct {
	GrantedBy   *string
	IsFreeTrial bool
}

func (s *SubscriptionService) Grant(ctx context.Context, accountID string, durationDays int, opts GrantOptions) (int64, error) {
	if accountID == "" {
		return 0, apperrors.MissingRequired("accountId")
	}
	if durationDays <= 0 {
		return 0, apperrors.InvalidDuration("durationDays must be a positive whole number of days")
	}

	now := s.now()

	latest, err := s.subRepo.FindLatestByAccount(ctx, accountID)
	if err != nil {
		return 0, apperrors.StoreUnavailable(err)
	}

	base := now
	if latest != nil && latest.EndTime > now {
		base = latest.EndTime
	}
	newEndTime := base + int64(durationDays)*dayMillis

	if latest != nil && latest.EndTime > now {
		if err := s.subRepo.UpdateEndTime(ctx, latest.ID, newEndTime, now); err != nil {
			return 0, apperrors.StoreUnavailable(err)
		}
	} else {
		_, err := s.subRepo.Create(ctx, model.CreateSubscriptionParams{
			AccountID:   accountID,
			StartTime:   now,
			EndTime:     newEndTime,
			GrantedBy:   opts.GrantedBy,
			IsFreeTrial: opts.IsFreeTrial,
		})
		if err != nil {
			return 0, apperrors.StoreUnavailable(err)
		}
	}

	s.recordActivity(ctx, accountID, "subscription_granted", map[string]any{
		"durationDays": durationDays,
		"newEndTime":   newEndTime,
	})

	log.Info().
		Str("accountId", accountID).
		Int("durationDays", durationDays).
		Int64("newEndTime", newEndTime).
		Msg("subscription granted")

	return newEndTime, nil
}

// RevokeDays subtracts whole days from the active subscription. The end
// time may land in the past, which deactivates the subscription at once.
func (s *SubscriptionService) RevokeDays(ctx context.Context, accountID string, days int) (int64, error) {
	if accountID == "" {
		return 0, apperrors.MissingRequired("accountId")
	}
	if days <= 0 {
		return 0, apperrors.InvalidDuration("days must be a positive whole number of days")
	}

	now := s.now()

	active, err := s.subRepo.FindActiveByAccount(ctx, accountID, now)
	if err != nil {
		return 0, apperrors.StoreUnavailable(err)
	}
	if active == nil {
		return 0, apperrors.NoActiveSubscription()
	}

	newEndTime := active.EndTime - int64(days)*dayMillis
	if err := s.subRepo.UpdateEndTime(ctx, active.ID, newEndTime, now); err != nil {
		return 0, apperrors.StoreUnavailable(err)
	}

	s.recordActivity(ctx, accountID, "subscription_days_removed", map[string]any{
		"daysRemoved": days,
		"newEndTime":  newEndTime,
	})

	log.Info().
		Str("accountId", accountID).
		Int("daysRemoved", days).
		Int64("newEndTime", newEndTime).
		Msg("subscription days removed")

	return newEndTime, nil
}

func (s *SubscriptionService) IsActive(ctx context.Context, accountID string) (bool, int64, error) {
	active, err := s.subRepo.FindActiveByAccount(ctx, accountID, s.now())
	if err != nil {
		return false, 0, apperrors.StoreUnavailable(err)
	}
	if active == nil {
		return false, 0, nil
	}
	return true, active.EndTime, nil
}

func (s *SubscriptionService) recordActivity(ctx context.Context, accountID, action string, details map[string]any) {
	data, _ := json.Marshal(details)
	if err := s.activityRepo.Record(ctx, accountID, action, data, s.now()); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

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

// LicenseService validates license keys and enforces the
// single-active-device binding. Binding is last-write-wins through a
// conditional store update; two near-simultaneous verifications from
// different devices can race inside that window, which is an accepted
// relaxation rather than a guarantee.
type LicenseService struct {
	licenseRepo  repository.LicenseRepository
	activityRepo repository.ActivityRepository
	bans         banChecker
	subs         subscriptionChecker
	staleAfter   time.Duration
	now          func() int64
}

func NewLicenseService(
	licenseRepo repository.LicenseRepository,
	activityRepo repository.ActivityRepository,
	bans banChecker,
	subs subscriptionChecker,
	staleAfter time.Duration,
) *LicenseService {
	return &LicenseService{
		licenseRepo:  licenseRepo,
		activityRepo: activityRepo,
		bans:         bans,
		subs:         subs,
		staleAfter:   staleAfter,
		now:          nowMillis,
	}
}

type VerifyResult struct {
	Granted             bool    `json:"granted"`
	AccountID           string  `json:"accountId,omitempty"`
	Reason              string  `json:"reason,omitempty"`
	BanReason           *string `json:"banReason,omitempty"`
	BanUntil            *int64  `json:"banUntil,omitempty"`
	HasSubscription     bool    `json:"hasSubscription"`
	SubscriptionEndTime int64   `json:"subscriptionEndTime,omitempty"`
}

func (s *LicenseService) Verify(ctx context.Context, licenseKey, username, deviceID string) (*VerifyResult, error) {
	if licenseKey == "" {
		return nil, apperrors.MissingRequired("licenseKey")
	}
	if username == "" {
		return nil, apperrors.MissingRequired("username")
	}
	if deviceID == "" {
		return nil, apperrors.MissingRequired("hwid")
	}

	lic, err := s.licenseRepo.FindByKey(ctx, licenseKey)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if lic == nil {
		return nil, apperrors.NotFound("License")
	}
	if !lic.Active {
		return nil, apperrors.LicenseInactive()
	}
	if lic.Username != username {
		log.Warn().
			Str("licenseKey", licenseKey).
			Str("username", username).
			Msg("license verify: username mismatch")
		return nil, apperrors.IdentityMismatch()
	}

	// Ban check comes before any grant and overrides everything else.
	banStatus, err := s.bans.Check(ctx, lic.AccountID)
	if err != nil {
		return nil, err
	}
	if banStatus.Banned {
		log.Warn().
			Str("accountId", lic.AccountID).
			Str("deviceId", deviceID).
			Msg("license verify: account banned")
		return &VerifyResult{
			Granted:   false,
			Reason:    "banned",
			BanReason: banStatus.Reason,
			BanUntil:  banStatus.Until,
		}, nil
	}

	now := s.now()
	var staleCutoff int64
	if s.staleAfter > 0 {
		staleCutoff = now - s.staleAfter.Milliseconds()
	}

	bound, err := s.licenseRepo.BindDevice(ctx, lic.ID, deviceID, now, staleCutoff)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if !bound {
		log.Warn().
			Str("licenseKey", licenseKey).
			Str("deviceId", deviceID).
			Msg("license verify: device conflict")
		return nil, apperrors.DeviceConflict()
	}

	hasSub, subEnd, err := s.subs.IsActive(ctx, lic.AccountID)
	if err != nil {
		return nil, err
	}

	s.recordActivity(ctx, lic.AccountID, "license_verified", map[string]any{
		"deviceId": deviceID,
	})

	log.Info().
		Str("accountId", lic.AccountID).
		Str("deviceId", deviceID).
		Msg("license verified")

	return &VerifyResult{
		Granted:             true,
		AccountID:           lic.AccountID,
		HasSubscription:     hasSub,
		SubscriptionEndTime: subEnd,
	}, nil
}

// Logout releases the device lock voluntarily so the license can be used
// on another machine.
func (s *LicenseService) Logout(ctx context.Context, licenseKey, username string) error {
	if licenseKey == "" {
		return apperrors.MissingRequired("licenseKey")
	}
	if username == "" {
		return apperrors.MissingRequired("username")
	}

	lic, err := s.licenseRepo.FindByKey(ctx, licenseKey)
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	if lic == nil {
		return apperrors.NotFound("License")
	}
	if lic.Username != username {
		return apperrors.IdentityMismatch()
	}

	if err := s.licenseRepo.ClearDevice(ctx, lic.ID, s.now()); err != nil {
		return apperrors.StoreUnavailable(err)
	}

	log.Info().Str("accountId", lic.AccountID).Msg("license logged out")
	return nil
}

func (s *LicenseService) Register(ctx context.Context, licenseKey, username, accountID string) (*model.License, error) {
	if licenseKey == "" {
		return nil, apperrors.MissingRequired("licenseKey")
	}
	if username == "" {
		return nil, apperrors.MissingRequired("username")
	}
	if accountID == "" {
		return nil, apperrors.MissingRequired("accountId")
	}

	existing, err := s.licenseRepo.FindByKey(ctx, licenseKey)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if existing != nil {
		return nil, apperrors.AlreadyExists("License")
	}

	lic, err := s.licenseRepo.Create(ctx, model.CreateLicenseParams{
		LicenseKey: licenseKey,
		Username:   username,
		AccountID:  accountID,
		CreatedAt:  s.now(),
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("License")
		}
		return nil, apperrors.StoreUnavailable(err)
	}

	log.Info().
		Str("licenseKey", licenseKey).
		Str("accountId", accountID).
		Msg("license registered")

	return lic, nil
}

func (s *LicenseService) recordActivity(ctx context.Context, accountID, action string, details map[string]any) {
	data, _ := json.Marshal(details)
	if err := s.activityRepo.Record(ctx, accountID, action, data, s.now()); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

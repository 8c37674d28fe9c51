package service

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cclient/license-server-go/internal/config"
	apperrors "github.com/cclient/license-server-go/internal/errors"
	"github.com/cclient/license-server-go/internal/model"
	"github.com/cclient/license-server-go/internal/repository"
)

// AccessCodeService issues device-scoped numeric pairing codes and links
// them to an account once the owner approves an auth request.
type AccessCodeService struct {
	codeRepo repository.AccessCodeRepository
	bans     banChecker
	subs     subscriptionChecker
	now      func() int64
}

func NewAccessCodeService(
	codeRepo repository.AccessCodeRepository,
	bans banChecker,
	subs subscriptionChecker,
) *AccessCodeService {
	return &AccessCodeService{
		codeRepo: codeRepo,
		bans:     bans,
		subs:     subs,
		now:      nowMillis,
	}
}

// Issue is idempotent per device: an outstanding unlinked code is returned
// as-is. The bool result reports whether the code already existed.
func (s *AccessCodeService) Issue(ctx context.Context, deviceID, sourceIP string) (*model.AccessCode, bool, error) {
	if deviceID == "" {
		return nil, false, apperrors.MissingRequired("hwid")
	}
	if sourceIP == "" {
		sourceIP = "unknown"
	}

	existing, err := s.codeRepo.FindUnlinkedByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, false, apperrors.StoreUnavailable(err)
	}
	if existing != nil {
		return existing, true, nil
	}

	for attempts := 0; attempts < config.AccessCodeMaxAttempts; attempts++ {
		code := generateNumericCode(config.AccessCodeLength)

		taken, err := s.codeRepo.FindByCode(ctx, code)
		if err != nil {
			return nil, false, apperrors.StoreUnavailable(err)
		}
		if taken != nil {
			continue
		}

		ac, err := s.codeRepo.Create(ctx, model.CreateAccessCodeParams{
			Code:      code,
			DeviceID:  deviceID,
			SourceIP:  sourceIP,
			CreatedAt: s.now(),
		})
		if err != nil {
			if repository.IsUniqueViolation(err) {
				// Either the code value or the one-unlinked-code-per-device
				// slot was taken concurrently. If another request won the
				// device slot, its code is the answer; otherwise retry with
				// a fresh code.
				winner, ferr := s.codeRepo.FindUnlinkedByDeviceID(ctx, deviceID)
				if ferr != nil {
					return nil, false, apperrors.StoreUnavailable(ferr)
				}
				if winner != nil {
					return winner, true, nil
				}
				continue
			}
			return nil, false, apperrors.StoreUnavailable(err)
		}

		log.Info().
			Str("code", FormatAccessCode(code)).
			Str("deviceId", deviceID).
			Msg("access code issued")

		return ac, false, nil
	}

	return nil, false, apperrors.CodeSpaceExhausted()
}

// Status reflects the code's link state plus the subscription and ban
// gating for the linked account. Codes are not transferable: a poll from a
// different device is rejected.
func (s *AccessCodeService) Status(ctx context.Context, code, deviceID string) (*model.AccessStatus, error) {
	if code == "" {
		return nil, apperrors.MissingRequired("accessCode")
	}
	if deviceID == "" {
		return nil, apperrors.MissingRequired("hwid")
	}

	ac, err := s.codeRepo.FindByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if ac == nil {
		return nil, apperrors.NotFound("Access code")
	}
	if ac.DeviceID != deviceID {
		return nil, apperrors.DeviceMismatch()
	}

	if !ac.IsLinked || ac.AccountID == nil {
		return &model.AccessStatus{IsLinked: false}, nil
	}

	banStatus, err := s.bans.Check(ctx, *ac.AccountID)
	if err != nil {
		return nil, err
	}
	if banStatus.Banned {
		return &model.AccessStatus{
			IsLinked:  true,
			AccountID: ac.AccountID,
			Banned:    true,
			BanReason: banStatus.Reason,
		}, nil
	}

	hasSub, subEnd, err := s.subs.IsActive(ctx, *ac.AccountID)
	if err != nil {
		return nil, err
	}

	return &model.AccessStatus{
		IsLinked:            true,
		AccountID:           ac.AccountID,
		HasSubscription:     hasSub,
		SubscriptionEndTime: subEnd,
	}, nil
}

// Link attaches the approved account identity to the code. Invoked as a
// side effect of auth request approval, never directly by a device.
func (s *AccessCodeService) Link(ctx context.Context, code, accountID, username string) error {
	if code == "" || accountID == "" {
		return apperrors.MissingRequired("accessCode")
	}

	ok, err := s.codeRepo.Link(ctx, normalizeCode(code), accountID, username, s.now())
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	if !ok {
		return apperrors.NotFound("Access code")
	}

	log.Info().
		Str("code", code).
		Str("accountId", accountID).
		Msg("access code linked")

	return nil
}

// Unlink clears the pairing so the code can be linked again.
// Unlinking an already-unlinked code succeeds without effect.
func (s *AccessCodeService) Unlink(ctx context.Context, code, deviceID, accountID string) error {
	if code == "" {
		return apperrors.MissingRequired("accessCode")
	}
	if deviceID == "" {
		return apperrors.MissingRequired("hwid")
	}

	ac, err := s.codeRepo.FindByCode(ctx, normalizeCode(code))
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	if ac == nil {
		return apperrors.NotFound("Access code")
	}
	if ac.DeviceID != deviceID {
		return apperrors.DeviceMismatch()
	}
	if !ac.IsLinked {
		return nil
	}
	if ac.AccountID != nil && accountID != "" && *ac.AccountID != accountID {
		return apperrors.Forbidden("Access code is linked to a different account")
	}

	if err := s.codeRepo.Unlink(ctx, ac.Code); err != nil {
		return apperrors.StoreUnavailable(err)
	}

	log.Info().Str("code", ac.Code).Msg("access code unlinked")
	return nil
}

func generateNumericCode(length int) string {
	digits := make([]byte, length)
	for i := range digits {
		n, _ := rand.Int(rand.Reader, big.NewInt(10))
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits)
}

// FormatAccessCode renders an 8-digit code as XX-XX-XX-XX for display.
func FormatAccessCode(code string) string {
	if len(code) != config.AccessCodeLength {
		return code
	}
	parts := make([]string, 0, len(code)/2)
	for i := 0; i+2 <= len(code); i += 2 {
		parts = append(parts, code[i:i+2])
	}
	return strings.Join(parts, "-")
}

func normalizeCode(code string) string {
	return strings.ReplaceAll(strings.TrimSpace(code), "-", "")
}

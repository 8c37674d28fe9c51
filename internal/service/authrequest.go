package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/cclient/license-server-go/internal/errors"
	"github.com/cclient/license-server-go/internal/model"
	"github.com/cclient/license-server-go/internal/notify"
	"github.com/cclient/license-server-go/internal/repository"
)

// accessLinker is the approval side effect seam: an approved auth request
// carrying an access code links the code to the account.
type accessLinker interface {
	Link(ctx context.Context, code, accountID, username string) error
}

var _ accessLinker = (*AccessCodeService)(nil)

// AuthRequestService coordinates the out-of-band approval protocol.
//
// Lifecycle: pending -> sent -> approved/denied -> completed, with lazy
// expiry on poll once the request is older than the TTL. Creating a request
// supersedes any resolvable request for the same account, so at most one
// pending/sent request exists per account. Expiry is evaluated only on
// poll; there is no background timer, and a request nobody polls again is
// eventually force-expired by the retention sweeper.
type AuthRequestService struct {
	authRepo repository.AuthRequestRepository
	linker   accessLinker
	notifier notify.Notifier
	ttl      time.Duration
	now      func() int64
}

func NewAuthRequestService(
	authRepo repository.AuthRequestRepository,
	linker accessLinker,
	notifier notify.Notifier,
	ttl time.Duration,
) *AuthRequestService {
	return &AuthRequestService{
		authRepo: authRepo,
		linker:   linker,
		notifier: notifier,
		ttl:      ttl,
		now:      nowMillis,
	}
}

type CreateAuthRequestInput struct {
	AccountID  string
	DeviceID   string
	Username   string
	SourceIP   string
	AccessCode *string
	Location   *string
}

// Create supersedes any outstanding request for the account, inserts the
// new pending one, and dispatches the approval prompt. Dispatch is
// best-effort: on failure the request stays pending and remains pollable
// until it expires or the channel redelivers.
func (s *AuthRequestService) Create(ctx context.Context, input CreateAuthRequestInput) (*model.AuthRequest, error) {
	if input.AccountID == "" {
		return nil, apperrors.MissingRequired("accountId")
	}
	if input.DeviceID == "" {
		return nil, apperrors.MissingRequired("hwid")
	}
	if input.Username == "" {
		return nil, apperrors.MissingRequired("username")
	}

	ar, err := s.authRepo.SupersedeAndCreate(ctx, model.CreateAuthRequestParams{
		RequestID:  newRequestID(),
		AccountID:  input.AccountID,
		DeviceID:   input.DeviceID,
		Username:   input.Username,
		SourceIP:   input.SourceIP,
		AccessCode: input.AccessCode,
		Location:   input.Location,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	prompt := notify.ApprovalPrompt{
		RequestID: ar.RequestID,
		Username:  input.Username,
	}
	if input.Location != nil {
		prompt.Location = *input.Location
	}

	if err := s.notifier.SendApprovalPrompt(ctx, input.AccountID, prompt); err != nil {
		log.Warn().
			Err(err).
			Str("requestId", ar.RequestID).
			Str("accountId", input.AccountID).
			Msg("approval prompt dispatch failed, request stays pending")
		return ar, nil
	}

	if ok, err := s.authRepo.MarkSent(ctx, ar.RequestID); err != nil {
		log.Warn().Err(err).Str("requestId", ar.RequestID).Msg("failed to mark auth request sent")
	} else if ok {
		ar.Status = model.AuthStatusSent
	}

	log.Info().
		Str("requestId", ar.RequestID).
		Str("accountId", input.AccountID).
		Msg("auth request created")

	return ar, nil
}

// Resolve lands the owner's decision from the notification channel.
// Duplicate callbacks are rejected with AlreadyTerminal, never reprocessed.
func (s *AuthRequestService) Resolve(ctx context.Context, requestID string, decision model.AuthDecision) error {
	if requestID == "" {
		return apperrors.MissingRequired("requestId")
	}
	if decision != model.DecisionApproved && decision != model.DecisionDenied {
		return apperrors.InvalidInput("decision", "must be approved or denied")
	}

	ar, err := s.authRepo.FindByRequestID(ctx, requestID)
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	if ar == nil {
		return apperrors.NotFound("Auth request")
	}
	if !ar.Status.Resolvable() {
		return apperrors.AlreadyTerminal(string(ar.Status))
	}

	ok, err := s.authRepo.Resolve(ctx, requestID, decision, s.now())
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	if !ok {
		// Raced with another callback or with lazy expiry.
		return apperrors.AlreadyTerminal(string(ar.Status))
	}

	if decision == model.DecisionApproved && ar.AccessCode != nil {
		if err := s.linker.Link(ctx, *ar.AccessCode, ar.AccountID, ar.Username); err != nil {
			log.Error().
				Err(err).
				Str("requestId", requestID).
				Str("code", *ar.AccessCode).
				Msg("failed to link access code on approval")
			return err
		}
	}

	log.Info().
		Str("requestId", requestID).
		Str("decision", string(decision)).
		Msg("auth request resolved")

	return nil
}

// Poll returns the request status as seen by the device, applying the lazy
// transitions: stale resolvable requests expire, and a decision is promoted
// to completed after being observed once. An unknown id maps to the
// not_found pseudo status rather than an error.
func (s *AuthRequestService) Poll(ctx context.Context, requestID string) (model.AuthRequestStatus, error) {
	if requestID == "" {
		return "", apperrors.MissingRequired("requestId")
	}

	ar, err := s.authRepo.FindByRequestID(ctx, requestID)
	if err != nil {
		return "", apperrors.StoreUnavailable(err)
	}
	if ar == nil {
		return model.AuthStatusNotFound, nil
	}

	now := s.now()

	if ar.Status.Resolvable() && now-ar.CreatedAt > s.ttl.Milliseconds() {
		ok, err := s.authRepo.Expire(ctx, requestID, now)
		if err != nil {
			return "", apperrors.StoreUnavailable(err)
		}
		if ok {
			return model.AuthStatusExpired, nil
		}
		// A decision landed between the read and the expiry write.
		ar, err = s.authRepo.FindByRequestID(ctx, requestID)
		if err != nil {
			return "", apperrors.StoreUnavailable(err)
		}
		if ar == nil {
			return model.AuthStatusNotFound, nil
		}
	}

	if ar.Status == model.AuthStatusApproved || ar.Status == model.AuthStatusDenied {
		if _, err := s.authRepo.Complete(ctx, requestID, now); err != nil {
			log.Warn().Err(err).Str("requestId", requestID).Msg("failed to complete auth request")
		}
		// The caller sees the decision once; the record is terminal after.
		return ar.Status, nil
	}

	return ar.Status, nil
}

func newRequestID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cclient/license-server-go/internal/config"
	"github.com/cclient/license-server-go/internal/repository"
)

// Sweeper is the bounded-batch retention garbage collector. It runs on
// demand (an admin endpoint triggers it, typically from an external
// scheduler) and processes each record category independently: a failure
// in one category never blocks the others.
type Sweeper struct {
	authRepo     repository.AuthRequestRepository
	subRepo      repository.SubscriptionRepository
	activityRepo repository.ActivityRepository
	codeRepo     repository.AccessCodeRepository
	batchSize    int
	now          func() int64
}

func NewSweeper(
	authRepo repository.AuthRequestRepository,
	subRepo repository.SubscriptionRepository,
	activityRepo repository.ActivityRepository,
	codeRepo repository.AccessCodeRepository,
	batchSize int,
) *Sweeper {
	return &Sweeper{
		authRepo:     authRepo,
		subRepo:      subRepo,
		activityRepo: activityRepo,
		codeRepo:     codeRepo,
		batchSize:    batchSize,
		now:          func() int64 { return time.Now().UnixMilli() },
	}
}

// Report carries per-category counts. Counts are best-effort: a category
// that failed reports zero and its error string.
type Report struct {
	AuthRequestsExpired  int64    `json:"authRequestsExpired"`
	AuthRequestsDeleted  int64    `json:"authRequestsDeleted"`
	SubscriptionsDeleted int64    `json:"subscriptionsDeleted"`
	ActivityDeleted      int64    `json:"activityRecordsDeleted"`
	AccessCodesDeleted   int64    `json:"accessCodesDeleted"`
	Errors               []string `json:"errors,omitempty"`
}

func (s *Sweeper) Run(ctx context.Context) Report {
	now := s.now()
	var report Report

	authCutoff := now - config.AuthRequestRetention.Milliseconds()
	subCutoff := now - config.SubscriptionRetention.Milliseconds()
	activityCutoff := now - config.ActivityLogRetention.Milliseconds()
	codeCutoff := now - config.UnlinkedCodeRetention.Milliseconds()

	// Requests that were never polled again cannot expire lazily; force
	// them terminal first so the deletion pass below can reap them on a
	// later run. Resolvable requests are never deleted outright.
	report.AuthRequestsExpired = s.sweep(ctx, &report, "expire stale auth requests", func(ctx context.Context) (int64, error) {
		return s.authRepo.ExpireResolvableOlderThan(ctx, authCutoff, now, s.batchSize)
	})

	report.AuthRequestsDeleted = s.sweep(ctx, &report, "auth requests", func(ctx context.Context) (int64, error) {
		return s.authRepo.DeleteTerminalOlderThan(ctx, authCutoff, s.batchSize)
	})

	report.SubscriptionsDeleted = s.sweep(ctx, &report, "subscriptions", func(ctx context.Context) (int64, error) {
		return s.subRepo.DeleteEndedBefore(ctx, subCutoff, s.batchSize)
	})

	report.ActivityDeleted = s.sweep(ctx, &report, "activity records", func(ctx context.Context) (int64, error) {
		return s.activityRepo.DeleteOlderThan(ctx, activityCutoff, s.batchSize)
	})

	report.AccessCodesDeleted = s.sweep(ctx, &report, "unlinked access codes", func(ctx context.Context) (int64, error) {
		return s.codeRepo.DeleteUnlinkedOlderThan(ctx, codeCutoff, s.batchSize)
	})

	log.Info().
		Int64("authRequestsExpired", report.AuthRequestsExpired).
		Int64("authRequestsDeleted", report.AuthRequestsDeleted).
		Int64("subscriptionsDeleted", report.SubscriptionsDeleted).
		Int64("activityDeleted", report.ActivityDeleted).
		Int64("accessCodesDeleted", report.AccessCodesDeleted).
		Int("errors", len(report.Errors)).
		Msg("retention sweep finished")

	return report
}

func (s *Sweeper) sweep(ctx context.Context, report *Report, name string, fn func(context.Context) (int64, error)) int64 {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to sweep %s", name)
		report.Errors = append(report.Errors, name+": "+err.Error())
		return 0
	}
	if count > 0 {
		log.Info().Int64("count", count).Msgf("swept %s", name)
	}
	return count
}

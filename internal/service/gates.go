package service

import (
	"context"

	"github.com/cclient/license-server-go/internal/model"
)

// banChecker and subscriptionChecker are the access-gating seams between
// services. BanService and SubscriptionService satisfy them; tests
// substitute mocks.
type banChecker interface {
	Check(ctx context.Context, accountID string) (model.BanStatus, error)
}

type subscriptionChecker interface {
	IsActive(ctx context.Context, accountID string) (bool, int64, error)
}

var _ banChecker = (*BanService)(nil)
var _ subscriptionChecker = (*SubscriptionService)(nil)

package service

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/cclient/license-server-go/internal/model"
	"github.com/cclient/license-server-go/internal/notify"
)

// Mock repositories shared across the service tests.

type mockLicenseRepo struct {
	mock.Mock
}

func (m *mockLicenseRepo) FindByKey(ctx context.Context, licenseKey string) (*model.License, error) {
	args := m.Called(ctx, licenseKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.License), args.Error(1)
}

func (m *mockLicenseRepo) Create(ctx context.Context, params model.CreateLicenseParams) (*model.License, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.License), args.Error(1)
}

func (m *mockLicenseRepo) BindDevice(ctx context.Context, id, deviceID string, now, staleCutoff int64) (bool, error) {
	args := m.Called(ctx, id, deviceID, now, staleCutoff)
	return args.Bool(0), args.Error(1)
}

func (m *mockLicenseRepo) ClearDevice(ctx context.Context, id string, now int64) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

type mockAccessCodeRepo struct {
	mock.Mock
}

func (m *mockAccessCodeRepo) FindByCode(ctx context.Context, code string) (*model.AccessCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessCode), args.Error(1)
}

func (m *mockAccessCodeRepo) FindUnlinkedByDeviceID(ctx context.Context, deviceID string) (*model.AccessCode, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessCode), args.Error(1)
}

func (m *mockAccessCodeRepo) Create(ctx context.Context, params model.CreateAccessCodeParams) (*model.AccessCode, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessCode), args.Error(1)
}

func (m *mockAccessCodeRepo) Link(ctx context.Context, code, accountID, username string, now int64) (bool, error) {
	args := m.Called(ctx, code, accountID, username, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccessCodeRepo) Unlink(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *mockAccessCodeRepo) DeleteUnlinkedOlderThan(ctx context.Context, cutoff int64, limit int) (int64, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).(int64), args.Error(1)
}

type mockSubscriptionRepo struct {
	mock.Mock
}

func (m *mockSubscriptionRepo) FindLatestByAccount(ctx context.Context, accountID string) (*model.Subscription, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) FindActiveByAccount(ctx context.Context, accountID string, now int64) (*model.Subscription, error) {
	args := m.Called(ctx, accountID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) Create(ctx context.Context, params model.CreateSubscriptionParams) (*model.Subscription, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) UpdateEndTime(ctx context.Context, id string, endTime, now int64) error {
	args := m.Called(ctx, id, endTime, now)
	return args.Error(0)
}

func (m *mockSubscriptionRepo) DeleteEndedBefore(ctx context.Context, cutoff int64, limit int) (int64, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).(int64), args.Error(1)
}

type mockAuthRequestRepo struct {
	mock.Mock
}

func (m *mockAuthRequestRepo) FindByRequestID(ctx context.Context, requestID string) (*model.AuthRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthRequest), args.Error(1)
}

func (m *mockAuthRequestRepo) SupersedeAndCreate(ctx context.Context, params model.CreateAuthRequestParams) (*model.AuthRequest, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthRequest), args.Error(1)
}

func (m *mockAuthRequestRepo) MarkSent(ctx context.Context, requestID string) (bool, error) {
	args := m.Called(ctx, requestID)
	return args.Bool(0), args.Error(1)
}

func (m *mockAuthRequestRepo) Resolve(ctx context.Context, requestID string, decision model.AuthDecision, now int64) (bool, error) {
	args := m.Called(ctx, requestID, decision, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockAuthRequestRepo) Complete(ctx context.Context, requestID string, now int64) (bool, error) {
	args := m.Called(ctx, requestID, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockAuthRequestRepo) Expire(ctx context.Context, requestID string, now int64) (bool, error) {
	args := m.Called(ctx, requestID, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockAuthRequestRepo) ExpireResolvableOlderThan(ctx context.Context, cutoff, now int64, limit int) (int64, error) {
	args := m.Called(ctx, cutoff, now, limit)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAuthRequestRepo) DeleteTerminalOlderThan(ctx context.Context, cutoff int64, limit int) (int64, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).(int64), args.Error(1)
}

type mockBanRepo struct {
	mock.Mock
}

func (m *mockBanRepo) FindByAccount(ctx context.Context, accountID string) (*model.Ban, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ban), args.Error(1)
}

func (m *mockBanRepo) Upsert(ctx context.Context, ban model.Ban) (*model.Ban, error) {
	args := m.Called(ctx, ban)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ban), args.Error(1)
}

func (m *mockBanRepo) Deactivate(ctx context.Context, accountID string, now int64, unbannedBy string) (bool, error) {
	args := m.Called(ctx, accountID, now, unbannedBy)
	return args.Bool(0), args.Error(1)
}

type mockActivityRepo struct {
	mock.Mock
}

func (m *mockActivityRepo) Record(ctx context.Context, accountID, action string, details json.RawMessage, timestamp int64) error {
	args := m.Called(ctx, accountID, action, details, timestamp)
	return args.Error(0)
}

func (m *mockActivityRepo) DeleteOlderThan(ctx context.Context, cutoff int64, limit int) (int64, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).(int64), args.Error(1)
}

// Gate and side-effect seams.

type mockBanChecker struct {
	mock.Mock
}

func (m *mockBanChecker) Check(ctx context.Context, accountID string) (model.BanStatus, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(model.BanStatus), args.Error(1)
}

type mockSubscriptionChecker struct {
	mock.Mock
}

func (m *mockSubscriptionChecker) IsActive(ctx context.Context, accountID string) (bool, int64, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Get(1).(int64), args.Error(2)
}

type mockLinker struct {
	mock.Mock
}

func (m *mockLinker) Link(ctx context.Context, code, accountID, username string) error {
	args := m.Called(ctx, code, accountID, username)
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendApprovalPrompt(ctx context.Context, accountID string, prompt notify.ApprovalPrompt) error {
	args := m.Called(ctx, accountID, prompt)
	return args.Error(0)
}

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"movapp-backend/internal/config"
	domainAudit "movapp-backend/internal/domain/audit"
	domainUser "movapp-backend/internal/domain/user"
	"movapp-backend/internal/logger"
	"movapp-backend/internal/testhelpers"
	"movapp-backend/internal/usecase/audit"
	appErrors "movapp-backend/pkg/errors"
	"movapp-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testPassword = "secreto123"

var testInfo = audit.RequestInfo{IP: "10.0.0.1", UserAgent: "MovApp/1.0"}

type fixture struct {
	store    *testhelpers.MemStore
	mailer   *MockMailer
	notifier *MockWelcomeNotifier
	service  *Service
	now      time.Time
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{BcryptCost: 4},
		Recovery: config.RecoveryConfig{
			CodeTTLMinutes: 5,
			MaxAttempts:    3,
			WindowMinutes:  60,
			CodeLength:     5,
			DeepLinkBase:   "movapp://reset-pass",
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithConfig(t, testConfig())
}

func newFixtureWithConfig(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		store:    testhelpers.NewMemStore(),
		mailer:   NewMockMailer(ctrl),
		notifier: NewMockWelcomeNotifier(ctrl),
		now:      time.Now(),
	}
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.notifier.EXPECT().SendWelcome(gomock.Any(), gomock.Any(), gomock.Any()).Return(appErrors.ErrNoPushToken).AnyTimes()

	clock := func() time.Time { return f.now }
	tokens := utils.NewTokenManager("test-secret", 30*time.Minute, 30*24*time.Hour).WithClock(clock)
	service, err := NewService(
		Repositories{
			Users:         f.store.Users(),
			Resets:        f.store.Resets(),
			Devices:       f.store.Devices(),
			RefreshTokens: f.store.RefreshTokens(),
		},
		f.store,
		audit.NewLogger(f.store.Audit()),
		f.mailer,
		tokens,
		cfg,
	)
	require.NoError(t, err)
	f.service = service.WithNotifier(f.notifier).WithClock(clock)
	return f
}

func registerRequest(email, deviceID string) *RegisterRequest {
	req := &RegisterRequest{
		Name:      "Ana López",
		Email:     email,
		Phone:     "+52 55 1234 5678",
		CountryID: 1,
		Password:  testPassword,
	}
	if deviceID != "" {
		req.Device = &DeviceInfo{DeviceID: deviceID, Platform: "ios"}
	}
	return req
}

func (f *fixture) register(t *testing.T, email, deviceID string) *AuthResponse {
	t.Helper()
	resp, err := f.service.Register(context.Background(), registerRequest(email, deviceID), testInfo)
	require.NoError(t, err)
	return resp
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	resp := f.register(t, "ana@example.com", "dev-1")
	assert.NotEmpty(t, resp.AccessToken)
	require.NotNil(t, resp.Device)
	assert.NotEmpty(t, resp.Device.RefreshToken)
	assert.Equal(t, "ana@example.com", resp.User.Email)

	_, err := f.service.Register(ctx, registerRequest("ana@example.com", ""), testInfo)
	assert.ErrorIs(t, err, appErrors.ErrUserAlreadyExists)

	weak := registerRequest("otra@example.com", "")
	weak.Password = "123"
	_, err = f.service.Register(ctx, weak, testInfo)
	assert.Equal(t, appErrors.CodeValidation, appErrors.CodeOf(err))

	entries, err := f.store.Audit().ListByUser(ctx, mustUserID(t, f, resp))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domainAudit.ActionRegisterUser, entries[0].Action)
	assert.Equal(t, "10.0.0.1", entries[0].IP)
}

func TestService_Register_WithoutDevice(t *testing.T) {
	f := newFixture(t)

	resp := f.register(t, "ana@example.com", "")
	assert.NotEmpty(t, resp.AccessToken)
	assert.Nil(t, resp.Device)
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "ana@example.com", "")

	resp, err := f.service.Login(ctx, &LoginRequest{
		Email:    "ana@example.com",
		Password: testPassword,
		Device:   &DeviceInfo{DeviceID: "dev-9"},
	}, testInfo)
	require.NoError(t, err)
	assert.Equal(t, "dev-9", resp.Device.DeviceID)

	_, err = f.service.Login(ctx, &LoginRequest{Email: "ana@example.com", Password: "incorrecta"}, testInfo)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = f.service.Login(ctx, &LoginRequest{Email: "nadie@example.com", Password: "incorrecta"}, testInfo)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	// The registration password rule does not apply to login attempts.
	_, err = f.service.Login(ctx, &LoginRequest{Email: "ana@example.com", Password: "abc"}, testInfo)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	_, err = f.service.Login(ctx, &LoginRequest{Email: "nadie@example.com", Password: "abc"}, testInfo)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestService_LoginWithShortLegacyPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	hash, err := utils.NewPasswordHasher(4).Hash("abc")
	require.NoError(t, err)
	require.NoError(t, f.store.Users().Create(ctx, &domainUser.User{
		Name:         "Legado",
		Email:        "legado@example.com",
		Phone:        "5512345678",
		CountryID:    1,
		PasswordHash: hash,
	}))

	resp, err := f.service.Login(ctx, &LoginRequest{Email: "legado@example.com", Password: "abc"}, testInfo)
	require.NoError(t, err)
	assert.Equal(t, "legado@example.com", resp.User.Email)
}

func TestService_PlaintextPasswordWithEncryptionMarker(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Auth.AESSecret = "movapp-secret"
	f := newFixtureWithConfig(t, cfg)

	req := registerRequest("ana@example.com", "")
	req.Password = "U2Fsecret99"
	_, err := f.service.Register(ctx, req, testInfo)
	require.NoError(t, err)

	_, err = f.service.Login(ctx, &LoginRequest{Email: "ana@example.com", Password: "U2Fsecret99"}, testInfo)
	require.NoError(t, err)
}

func TestService_RefreshRotatesPerDevice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.register(t, "ana@example.com", "dev-1")

	second, err := f.service.Login(ctx, &LoginRequest{
		Email:    "ana@example.com",
		Password: testPassword,
		Device:   &DeviceInfo{DeviceID: "dev-1"},
	}, testInfo)
	require.NoError(t, err)
	require.NotEqual(t, first.Device.RefreshToken, second.Device.RefreshToken)

	_, err = f.service.RefreshAccessToken(ctx, &RefreshRequest{RefreshToken: first.Device.RefreshToken, DeviceID: "dev-1"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidRefreshToken)

	_, err = f.service.RefreshAccessToken(ctx, &RefreshRequest{RefreshToken: first.Device.RefreshToken})
	assert.ErrorIs(t, err, appErrors.ErrInvalidRefreshToken)

	refreshed, err := f.service.RefreshAccessToken(ctx, &RefreshRequest{RefreshToken: second.Device.RefreshToken, DeviceID: "dev-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestService_RefreshRejectsRevokedDevice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.register(t, "ana@example.com", "dev-1")

	require.NoError(t, f.service.RevokeDevice(ctx, &RevokeDeviceRequest{DeviceID: "dev-1"}, testInfo))

	_, err := f.service.RefreshAccessToken(ctx, &RefreshRequest{RefreshToken: resp.Device.RefreshToken, DeviceID: "dev-1"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidRefreshToken)

	// Revoking an unknown device is not an error.
	assert.NoError(t, f.service.RevokeDevice(ctx, &RevokeDeviceRequest{DeviceID: "ghost"}, testInfo))
}

func TestService_RefreshExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.register(t, "ana@example.com", "dev-1")

	f.now = f.now.Add(31 * 24 * time.Hour)
	_, err := f.service.RefreshAccessToken(ctx, &RefreshRequest{RefreshToken: resp.Device.RefreshToken, DeviceID: "dev-1"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidRefreshToken)

	_, err = f.service.RefreshAccessToken(ctx, &RefreshRequest{})
	assert.ErrorIs(t, err, appErrors.ErrInvalidRefreshToken)
}

func TestService_DeleteAndReactivate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	original := f.register(t, "a@x.com", "dev-1")
	userID := mustUserID(t, f, original)

	require.NoError(t, f.service.SendRecoveryCode(ctx, &RecoverRequest{Email: "a@x.com"}))

	resp, err := f.service.DeleteAccount(ctx, original.User.UUID, testInfo)
	require.NoError(t, err)
	assert.Equal(t, deleteAccountMessage, resp.Message)

	assert.Empty(t, f.store.RefreshTokensOf(userID))
	assert.Empty(t, f.store.ResetTokens(userID))
	devices, err := f.store.Devices().ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.True(t, devices[0].Revoked)
	assert.False(t, devices[0].PushEnabled)

	entries, err := f.store.Audit().ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = f.service.Login(ctx, &LoginRequest{Email: "a@x.com", Password: testPassword}, testInfo)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	_, err = f.service.DeleteAccount(ctx, original.User.UUID, testInfo)
	assert.ErrorIs(t, err, appErrors.ErrUserNotFound)

	again := registerRequest("a@x.com", "")
	again.Name = "Ana Renovada"
	again.Phone = "+52 33 0000 1111"
	reactivated, err := f.service.Register(ctx, again, testInfo)
	require.NoError(t, err)
	assert.Equal(t, original.User.UUID, reactivated.User.UUID)
	assert.Equal(t, "Ana Renovada", reactivated.User.Name)

	entries, err = f.store.Audit().ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domainAudit.ActionReactivateAccount, entries[len(entries)-1].Action)
}

func TestService_RecoveryRateLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "ana@example.com", "")

	for i := 0; i < 3; i++ {
		require.NoError(t, f.service.SendRecoveryCode(ctx, &RecoverRequest{Email: "ana@example.com"}))
	}
	err := f.service.SendRecoveryCode(ctx, &RecoverRequest{Email: "ana@example.com"})
	assert.ErrorIs(t, err, appErrors.ErrTooManyAttempts)

	f.now = f.now.Add(61 * time.Minute)
	assert.NoError(t, f.service.SendRecoveryCode(ctx, &RecoverRequest{Email: "ana@example.com"}))

	err = f.service.SendRecoveryCode(ctx, &RecoverRequest{Email: "nadie@example.com"})
	assert.ErrorIs(t, err, appErrors.ErrUserNotFound)
}

func TestService_ResetPasswordSingleUse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.register(t, "ana@example.com", "")
	userID := mustUserID(t, f, resp)

	require.NoError(t, f.service.SendRecoveryCode(ctx, &RecoverRequest{Email: "ana@example.com"}))
	codes := f.store.ResetTokens(userID)
	require.Len(t, codes, 1)
	code := codes[0].Code

	reset := &ResetPasswordRequest{Email: "ana@example.com", Code: code, NewPassword: "nuevaClave1"}
	_, err := f.service.ResetPassword(ctx, reset, testInfo)
	require.NoError(t, err)

	rows := f.store.ResetTokens(userID)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Used)

	_, err = f.service.ResetPassword(ctx, reset, testInfo)
	assert.ErrorIs(t, err, appErrors.ErrInvalidResetCode)

	_, err = f.service.Login(ctx, &LoginRequest{Email: "ana@example.com", Password: "nuevaClave1"}, testInfo)
	assert.NoError(t, err)
}

func TestService_ResetPasswordExpiredCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.register(t, "ana@example.com", "")

	require.NoError(t, f.service.SendRecoveryCode(ctx, &RecoverRequest{Email: "ana@example.com"}))
	code := f.store.ResetTokens(mustUserID(t, f, resp))[0].Code

	f.now = f.now.Add(6 * time.Minute)
	_, err := f.service.ResetPassword(ctx, &ResetPasswordRequest{Email: "ana@example.com", Code: code, NewPassword: "nuevaClave1"}, testInfo)
	assert.ErrorIs(t, err, appErrors.ErrInvalidResetCode)
}

func TestService_RecoveryMailFailurePropagates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "ana@example.com", "")

	ctrl := gomock.NewController(t)
	mailer := NewMockMailer(ctrl)
	mailer.EXPECT().Send(gomock.Any(), "ana@example.com", recoverySubject, gomock.Any()).Return(errors.New("smtp down"))
	f.service.mailer = mailer

	err := f.service.SendRecoveryCode(ctx, &RecoverRequest{Email: "ana@example.com"})
	assert.Error(t, err)
}

func TestService_AuditFailureIsSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	previous := logger.Logger
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(previous) })

	f := newFixture(t)
	f.store.AuditErr = errors.New("audit table locked")

	resp := f.register(t, "ana@example.com", "dev-1")
	assert.NotEmpty(t, resp.AccessToken)

	assert.Equal(t, 1, logs.FilterMessage("Failed to write audit entry").Len())
}

func TestService_WelcomePushFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)

	ctrl := gomock.NewController(t)
	notifier := NewMockWelcomeNotifier(ctrl)
	notifier.EXPECT().SendWelcome(gomock.Any(), "dev-1", "Ana López").Return(errors.New("expo down"))
	f.service.notifier = notifier

	resp := f.register(t, "ana@example.com", "dev-1")
	assert.NotEmpty(t, resp.AccessToken)
}

func TestService_CreateSessionRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.register(t, "ana@example.com", "")
	user, err := f.store.Users().GetActiveByUUID(ctx, resp.User.UUID)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	tx := NewMockTransactor(ctrl)
	tx.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).Return(errors.New("deadlock"))
	f.service.tx = tx

	_, err = f.service.CreateSession(ctx, user, &DeviceInfo{DeviceID: "dev-1"})
	assert.Error(t, err)
}

func TestService_ListDevices(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.register(t, "ana@example.com", "dev-1")

	devices, err := f.service.ListDevices(ctx, resp.User.UUID)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "dev-1", devices[0].DeviceID)
	assert.Empty(t, devices[0].RefreshToken)
}

func TestService_CleanupExpiredTokens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "ana@example.com", "dev-1")
	require.NoError(t, f.service.SendRecoveryCode(ctx, &RecoverRequest{Email: "ana@example.com"}))

	refreshDeleted, resetsDeleted, err := f.service.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Zero(t, refreshDeleted)
	assert.Zero(t, resetsDeleted)

	f.now = f.now.Add(31 * 24 * time.Hour)
	refreshDeleted, resetsDeleted, err = f.service.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), refreshDeleted)
	assert.Equal(t, int64(1), resetsDeleted)
}

func mustUserID(t *testing.T, f *fixture, resp *AuthResponse) uint64 {
	t.Helper()
	user, err := f.store.Users().GetLatestByEmail(context.Background(), resp.User.Email)
	require.NoError(t, err)
	return user.ID
}

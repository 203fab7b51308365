package notification

import (
	"context"
	"errors"
	"strings"
	"testing"

	domainDevice "movapp-backend/internal/domain/device"
	domainUser "movapp-backend/internal/domain/user"
	"movapp-backend/internal/testhelpers"
	appErrors "movapp-backend/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const validToken = "ExponentPushToken[abc123]"

type fixture struct {
	store   *testhelpers.MemStore
	sender  *MockPushSender
	service *Service
	user    *domainUser.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	store := testhelpers.NewMemStore()
	sender := NewMockPushSender(ctrl)
	sender.EXPECT().ValidToken(gomock.Any()).DoAndReturn(func(token string) bool {
		return strings.HasPrefix(token, "ExponentPushToken[")
	}).AnyTimes()

	user := &domainUser.User{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, store.Users().Create(context.Background(), user))

	return &fixture{
		store:   store,
		sender:  sender,
		service: NewService(store.Devices(), store.Users(), sender),
		user:    user,
	}
}

func (f *fixture) addDevice(t *testing.T, deviceID string, token *string, enabled bool) {
	t.Helper()
	_, err := f.store.Devices().Upsert(context.Background(), &domainDevice.Device{DeviceID: deviceID, UserID: f.user.ID})
	require.NoError(t, err)
	_, err = f.store.Devices().SetPushToken(context.Background(), deviceID, token, enabled)
	require.NoError(t, err)
}

func ptr(s string) *string { return &s }

func TestService_RegisterPushToken(t *testing.T) {
	ctx := context.Background()

	t.Run("stores token and enables push", func(t *testing.T) {
		f := newFixture(t)
		f.addDevice(t, "dev-1", nil, false)

		status, err := f.service.RegisterPushToken(ctx, &RegisterTokenRequest{DeviceID: "dev-1", PushToken: validToken})
		require.NoError(t, err)
		assert.True(t, status.PushEnabled)
		assert.True(t, status.HasToken)
	})

	t.Run("rejects malformed token", func(t *testing.T) {
		f := newFixture(t)
		f.addDevice(t, "dev-1", nil, false)

		_, err := f.service.RegisterPushToken(ctx, &RegisterTokenRequest{DeviceID: "dev-1", PushToken: "not-a-token"})
		assert.ErrorIs(t, err, appErrors.ErrInvalidPushToken)
	})

	t.Run("unknown device", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.RegisterPushToken(ctx, &RegisterTokenRequest{DeviceID: "ghost", PushToken: validToken})
		assert.ErrorIs(t, err, appErrors.ErrDeviceNotFound)
	})

	t.Run("revoked device", func(t *testing.T) {
		f := newFixture(t)
		f.addDevice(t, "dev-1", nil, false)
		_, err := f.store.Devices().Revoke(ctx, "dev-1")
		require.NoError(t, err)

		_, err = f.service.RegisterPushToken(ctx, &RegisterTokenRequest{DeviceID: "dev-1", PushToken: validToken})
		assert.ErrorIs(t, err, appErrors.ErrDeviceNotFound)
	})
}

func TestService_SetPushEnabledAndRemove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addDevice(t, "dev-1", ptr(validToken), true)

	off := false
	status, err := f.service.SetPushEnabled(ctx, &ToggleRequest{DeviceID: "dev-1", Enabled: &off})
	require.NoError(t, err)
	assert.False(t, status.PushEnabled)
	assert.True(t, status.HasToken)

	status, err = f.service.RemovePushToken(ctx, "dev-1")
	require.NoError(t, err)
	assert.False(t, status.HasToken)
	assert.False(t, status.PushEnabled)

	_, err = f.service.RemovePushToken(ctx, "ghost")
	assert.ErrorIs(t, err, appErrors.ErrDeviceNotFound)

	_, err = f.service.SetPushEnabled(ctx, &ToggleRequest{DeviceID: "dev-1"})
	assert.Equal(t, appErrors.KindBadRequest, appErrors.KindOf(err))
}

func TestService_SendToDevice(t *testing.T) {
	ctx := context.Background()

	t.Run("sends to the device token", func(t *testing.T) {
		f := newFixture(t)
		f.addDevice(t, "dev-1", ptr(validToken), true)

		f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg Message) ([]Ticket, error) {
			assert.Equal(t, []string{validToken}, msg.Tokens)
			assert.Equal(t, "Hola", msg.Title)
			return []Ticket{{Token: validToken, Status: "ok"}}, nil
		})

		result, err := f.service.SendToDevice(ctx, &SendToDeviceRequest{DeviceID: "dev-1", Title: "Hola", Body: "Mundo"})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Sent)
		assert.Len(t, result.Tickets, 1)
	})

	tests := []struct {
		name    string
		token   *string
		enabled bool
	}{
		{"no token", nil, true},
		{"push disabled", ptr(validToken), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.addDevice(t, "dev-1", tt.token, tt.enabled)

			_, err := f.service.SendToDevice(ctx, &SendToDeviceRequest{DeviceID: "dev-1", Title: "t", Body: "b"})
			assert.ErrorIs(t, err, appErrors.ErrNoPushToken)
		})
	}

	t.Run("missing device", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.SendToDevice(ctx, &SendToDeviceRequest{DeviceID: "ghost", Title: "t", Body: "b"})
		assert.ErrorIs(t, err, appErrors.ErrNoPushToken)
	})

	t.Run("provider failure", func(t *testing.T) {
		f := newFixture(t)
		f.addDevice(t, "dev-1", ptr(validToken), true)
		f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil, errors.New("expo down"))

		_, err := f.service.SendToDevice(ctx, &SendToDeviceRequest{DeviceID: "dev-1", Title: "t", Body: "b"})
		require.Error(t, err)
		assert.Equal(t, appErrors.KindInternal, appErrors.KindOf(err))
	})
}

func TestService_SendToUser(t *testing.T) {
	ctx := context.Background()

	t.Run("fans out to eligible devices only", func(t *testing.T) {
		f := newFixture(t)
		f.addDevice(t, "dev-1", ptr(validToken), true)
		f.addDevice(t, "dev-2", ptr("ExponentPushToken[second]"), true)
		f.addDevice(t, "dev-3", ptr("ExponentPushToken[off]"), false)
		f.addDevice(t, "dev-4", ptr("garbage"), true)

		f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg Message) ([]Ticket, error) {
			assert.ElementsMatch(t, []string{validToken, "ExponentPushToken[second]"}, msg.Tokens)
			return nil, nil
		})

		result, err := f.service.SendToUser(ctx, &SendToUserRequest{UserUUID: f.user.UUID, Title: "t", Body: "b"})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Sent)
	})

	t.Run("no eligible devices", func(t *testing.T) {
		f := newFixture(t)
		f.addDevice(t, "dev-1", nil, false)

		_, err := f.service.SendToUser(ctx, &SendToUserRequest{UserUUID: f.user.UUID, Title: "t", Body: "b"})
		assert.ErrorIs(t, err, appErrors.ErrNoActiveDevices)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.SendToUser(ctx, &SendToUserRequest{UserUUID: uuid.New(), Title: "t", Body: "b"})
		assert.ErrorIs(t, err, appErrors.ErrNoActiveDevices)
	})
}

func TestService_SendWelcome(t *testing.T) {
	f := newFixture(t)
	f.addDevice(t, "dev-1", ptr(validToken), true)

	f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg Message) ([]Ticket, error) {
		assert.Equal(t, welcomeTitle, msg.Title)
		assert.Contains(t, msg.Body, "Ana")
		assert.Equal(t, "welcome", msg.Data["type"])
		return nil, nil
	})

	require.NoError(t, f.service.SendWelcome(context.Background(), "dev-1", "Ana"))
}

func TestService_NotifyPaymentReceived(t *testing.T) {
	ctx := context.Background()
	amount := decimal.RequireFromString("150.5")

	t.Run("pushes to every enabled device", func(t *testing.T) {
		f := newFixture(t)
		f.addDevice(t, "dev-1", ptr(validToken), true)

		f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg Message) ([]Ticket, error) {
			assert.Equal(t, paymentTitle, msg.Title)
			assert.Equal(t, "150.50", msg.Data["amount"])
			assert.Equal(t, "MOV-1", msg.Data["orderNumber"])
			return nil, nil
		})

		require.NoError(t, f.service.NotifyPaymentReceived(ctx, f.user.ID, "MOV-1", amount, "MXN"))
	})

	t.Run("no devices", func(t *testing.T) {
		f := newFixture(t)
		err := f.service.NotifyPaymentReceived(ctx, f.user.ID, "MOV-1", amount, "MXN")
		assert.ErrorIs(t, err, appErrors.ErrNoActiveDevices)
	})
}

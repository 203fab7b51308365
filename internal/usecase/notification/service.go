package notification

import (
	"context"
	"errors"
	"fmt"

	domainDevice "movapp-backend/internal/domain/device"
	domainUser "movapp-backend/internal/domain/user"
	"movapp-backend/internal/logger"
	appErrors "movapp-backend/pkg/errors"
	"movapp-backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	welcomeTitle = "¡Bienvenido a MovApp!"
	paymentTitle = "Pago recibido"
)

// Service manages push tokens on devices and fans notifications out to them.
type Service struct {
	devices domainDevice.Repository
	users   domainUser.Repository
	sender  PushSender
}

func NewService(devices domainDevice.Repository, users domainUser.Repository, sender PushSender) *Service {
	return &Service{
		devices: devices,
		users:   users,
		sender:  sender,
	}
}

func (s *Service) RegisterPushToken(ctx context.Context, req *RegisterTokenRequest) (*DeviceStatus, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}
	if !s.sender.ValidToken(req.PushToken) {
		return nil, appErrors.ErrInvalidPushToken
	}

	device, err := s.devices.GetByDeviceID(ctx, req.DeviceID)
	if err != nil {
		if errors.Is(err, domainDevice.ErrDeviceNotFound) {
			return nil, appErrors.ErrDeviceNotFound
		}
		return nil, err
	}
	if device.Revoked {
		return nil, appErrors.ErrDeviceNotFound
	}

	token := req.PushToken
	device, err = s.devices.SetPushToken(ctx, req.DeviceID, &token, true)
	if err != nil {
		return nil, s.deviceError(err)
	}

	logger.Info("Push token registered",
		zap.String("device_id", req.DeviceID),
		zap.String("event", "push_token_registered"),
	)
	return toDeviceStatus(device), nil
}

func (s *Service) SetPushEnabled(ctx context.Context, req *ToggleRequest) (*DeviceStatus, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}

	device, err := s.devices.SetPushEnabled(ctx, req.DeviceID, *req.Enabled)
	if err != nil {
		return nil, s.deviceError(err)
	}
	return toDeviceStatus(device), nil
}

func (s *Service) RemovePushToken(ctx context.Context, deviceID string) (*DeviceStatus, error) {
	device, err := s.devices.SetPushToken(ctx, deviceID, nil, false)
	if err != nil {
		return nil, s.deviceError(err)
	}

	logger.Info("Push token removed",
		zap.String("device_id", deviceID),
		zap.String("event", "push_token_removed"),
	)
	return toDeviceStatus(device), nil
}

func (s *Service) SendToDevice(ctx context.Context, req *SendToDeviceRequest) (*SendResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}

	device, err := s.devices.GetByDeviceID(ctx, req.DeviceID)
	if err != nil {
		if errors.Is(err, domainDevice.ErrDeviceNotFound) {
			return nil, appErrors.ErrNoPushToken
		}
		return nil, err
	}
	if !device.CanReceivePush() {
		return nil, appErrors.ErrNoPushToken
	}

	return s.send(ctx, Message{
		Tokens: []string{*device.PushToken},
		Title:  req.Title,
		Body:   req.Body,
		Data:   req.Data,
	})
}

func (s *Service) SendToUser(ctx context.Context, req *SendToUserRequest) (*SendResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}

	tokens, err := s.userTokens(ctx, req.UserUUID)
	if err != nil {
		return nil, err
	}

	return s.send(ctx, Message{
		Tokens: tokens,
		Title:  req.Title,
		Body:   req.Body,
		Data:   req.Data,
	})
}

// SendWelcome greets a freshly registered user on the device they signed up
// from, when that device already has a push token.
func (s *Service) SendWelcome(ctx context.Context, deviceID, name string) error {
	_, err := s.SendToDevice(ctx, &SendToDeviceRequest{
		DeviceID: deviceID,
		Title:    welcomeTitle,
		Body:     fmt.Sprintf("Hola %s, gracias por registrarte.", name),
		Data:     map[string]string{"type": "welcome"},
	})
	return err
}

// NotifyPaymentReceived pushes the payment confirmation to every device of
// the buyer with notifications on.
func (s *Service) NotifyPaymentReceived(ctx context.Context, userID uint64, orderNumber string, amount decimal.Decimal, currency string) error {
	devices, err := s.devices.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	tokens := s.pushTokens(devices)
	if len(tokens) == 0 {
		return appErrors.ErrNoActiveDevices
	}

	_, err = s.send(ctx, Message{
		Tokens: tokens,
		Title:  paymentTitle,
		Body:   fmt.Sprintf("Se ha recibido tu pago de %s %s. Orden %s.", currency, amount.StringFixed(2), orderNumber),
		Data: map[string]string{
			"type":        "payment",
			"orderNumber": orderNumber,
			"amount":      amount.StringFixed(2),
			"currency":    currency,
		},
	})
	return err
}

func (s *Service) userTokens(ctx context.Context, userID uuid.UUID) ([]string, error) {
	user, err := s.users.GetActiveByUUID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.ErrNoActiveDevices
		}
		return nil, err
	}

	devices, err := s.devices.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	tokens := s.pushTokens(devices)
	if len(tokens) == 0 {
		return nil, appErrors.ErrNoActiveDevices
	}
	return tokens, nil
}

// pushTokens keeps the deliverable, well-formed tokens.
func (s *Service) pushTokens(devices []*domainDevice.Device) []string {
	tokens := make([]string, 0, len(devices))
	for _, d := range devices {
		if !d.CanReceivePush() {
			continue
		}
		if !s.sender.ValidToken(*d.PushToken) {
			logger.Warn("Skipping malformed push token", zap.String("device_id", d.DeviceID))
			continue
		}
		tokens = append(tokens, *d.PushToken)
	}
	return tokens
}

func (s *Service) send(ctx context.Context, msg Message) (*SendResult, error) {
	tickets, err := s.sender.Send(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to send push notification: %w", err)
	}

	logger.Info("Push notification sent",
		zap.Int("recipients", len(msg.Tokens)),
		zap.String("title", msg.Title),
		zap.String("event", "push_sent"),
	)
	return &SendResult{Sent: len(msg.Tokens), Tickets: tickets}, nil
}

func (s *Service) deviceError(err error) error {
	if errors.Is(err, domainDevice.ErrDeviceNotFound) {
		return appErrors.ErrDeviceNotFound
	}
	return err
}

package session

import (
	"context"
	"errors"
	"fmt"

	domainDevice "movapp-backend/internal/domain/device"
	domainUser "movapp-backend/internal/domain/user"
	"movapp-backend/internal/logger"
	appErrors "movapp-backend/pkg/errors"
	"movapp-backend/pkg/utils"

	"go.uber.org/zap"
)

// CreateSession issues an access token and, when a device id is supplied,
// rotates the device's refresh token. The previous refresh token of the
// device stops validating once the new hash is stored.
func (s *Service) CreateSession(ctx context.Context, user *domainUser.User, info *DeviceInfo) (*Session, error) {
	accessToken, expiresAt, err := s.tokenManager.IssueAccessToken(user.UUID)
	if err != nil {
		return nil, err
	}

	session := &Session{AccessToken: accessToken, ExpiresAt: expiresAt}
	if info == nil || info.DeviceID == "" {
		return session, nil
	}

	refresh, err := s.tokenManager.IssueRefreshToken()
	if err != nil {
		return nil, err
	}

	var device *domainDevice.Device
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		device, err = s.devices.Upsert(ctx, &domainDevice.Device{
			DeviceID:    info.DeviceID,
			Label:       info.Label,
			Platform:    info.Platform,
			Model:       info.Model,
			AppVersion:  info.AppVersion,
			UserID:      user.ID,
			RefreshHash: &refresh.Hash,
		})
		if err != nil {
			return err
		}

		return s.refreshTokens.Create(ctx, &domainDevice.RefreshToken{
			UserID:    user.ID,
			DeviceID:  &device.ID,
			TokenHash: refresh.Hash,
			ExpiresAt: refresh.ExpiresAt,
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to bind device session: %w", err)
	}

	session.Device = ToDeviceResponse(device)
	session.Device.RefreshToken = refresh.Secret
	return session, nil
}

// RefreshAccessToken exchanges a refresh secret for a new access token. The
// refresh token is not rotated. A token bound to a device is only honoured
// while it is that device's current token and the device is not revoked.
func (s *Service) RefreshAccessToken(ctx context.Context, req *RefreshRequest) (*RefreshResponse, error) {
	if req.RefreshToken == "" {
		return nil, appErrors.ErrInvalidRefreshToken
	}
	hash := utils.HashRefreshToken(req.RefreshToken)

	var deviceRowID *uint64
	if req.DeviceID != "" {
		device, err := s.devices.GetByDeviceID(ctx, req.DeviceID)
		switch {
		case err == nil:
			deviceRowID = &device.ID
		case !errors.Is(err, domainDevice.ErrDeviceNotFound):
			return nil, err
		}
	}

	token, err := s.refreshTokens.FindValid(ctx, hash, deviceRowID, s.now())
	if err != nil {
		if errors.Is(err, domainDevice.ErrRefreshTokenNotFound) {
			return nil, appErrors.ErrInvalidRefreshToken
		}
		return nil, err
	}

	if token.DeviceID != nil {
		device, err := s.devices.GetByID(ctx, *token.DeviceID)
		if err != nil {
			if errors.Is(err, domainDevice.ErrDeviceNotFound) {
				return nil, appErrors.ErrInvalidRefreshToken
			}
			return nil, err
		}
		if device.UserID != token.UserID || !device.HoldsRefreshHash(hash) {
			logger.Warn("Refresh with superseded or revoked device token",
				zap.String("device_id", device.DeviceID),
				zap.Bool("revoked", device.Revoked),
				zap.String("event", "refresh_token_superseded"),
			)
			return nil, appErrors.ErrInvalidRefreshToken
		}
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, err
	}
	if !user.Active {
		return nil, appErrors.ErrUserNotFound
	}

	accessToken, expiresAt, err := s.tokenManager.IssueAccessToken(user.UUID)
	if err != nil {
		return nil, err
	}

	return &RefreshResponse{AccessToken: accessToken, ExpiresAt: expiresAt}, nil
}

package device

import "errors"

var (
	ErrDeviceNotFound       = errors.New("device not found")
	ErrRefreshTokenNotFound = errors.New("refresh token not found or expired")
)

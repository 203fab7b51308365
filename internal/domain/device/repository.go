package device

import (
	"context"
	"time"
)

// Repository defines the interface for device registry operations
type Repository interface {
	// Upsert inserts or overwrites the row keyed by DeviceID in one statement.
	// Ownership, metadata, refresh hash and last-seen are replaced and the
	// device is un-revoked; push settings are left alone.
	Upsert(ctx context.Context, device *Device) (*Device, error)
	GetByID(ctx context.Context, id uint64) (*Device, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*Device, error)
	ListByUser(ctx context.Context, userID uint64) ([]*Device, error)
	// Revoke is idempotent and reports whether a row exists.
	Revoke(ctx context.Context, deviceID string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uint64) (int64, error)
	SetPushToken(ctx context.Context, deviceID string, token *string, enabled bool) (*Device, error)
	SetPushEnabled(ctx context.Context, deviceID string, enabled bool) (*Device, error)
}

// RefreshTokenRepository defines the interface for refresh token persistence
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *RefreshToken) error
	// FindValid matches hash and expiry, plus the device row when deviceID is not nil.
	FindValid(ctx context.Context, tokenHash string, deviceID *uint64, now time.Time) (*RefreshToken, error)
	DeleteAllForUser(ctx context.Context, userID uint64) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

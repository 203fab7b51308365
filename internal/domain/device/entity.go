package device

import "time"

// Device is one app install, keyed by the client-supplied DeviceID.
type Device struct {
	ID          uint64
	DeviceID    string
	Label       string
	Platform    string
	Model       string
	AppVersion  string
	UserID      uint64
	RefreshHash *string
	Revoked     bool
	PushToken   *string
	PushEnabled bool
	LastSeenAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HoldsRefreshHash reports whether hash is the device's current refresh credential.
func (d *Device) HoldsRefreshHash(hash string) bool {
	return !d.Revoked && d.RefreshHash != nil && *d.RefreshHash == hash
}

// CanReceivePush reports whether notifications may be sent to the device.
func (d *Device) CanReceivePush() bool {
	return !d.Revoked && d.PushEnabled && d.PushToken != nil && *d.PushToken != ""
}

type RefreshToken struct {
	ID        uint64
	UserID    uint64
	DeviceID  *uint64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

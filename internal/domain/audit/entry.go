package audit

import (
	"context"
	"time"
)

const (
	ActionRegisterUser      = "registerUser"
	ActionReactivateAccount = "reactivateAccount"
	ActionLoginUser         = "loginUser"
	ActionRevokeDevice      = "revokeDevice"
	ActionResetPassword     = "resetPassword"
	ActionDeleteAccount     = "deleteAccount"
)

// Entry is append-only. DeviceID is the client identifier as text so the row
// outlives the device.
type Entry struct {
	ID        uint64
	UserID    *uint64
	DeviceID  *string
	Action    string
	Success   bool
	IP        string
	UserAgent string
	CreatedAt time.Time
}

type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	ListByUser(ctx context.Context, userID uint64) ([]*Entry, error)
}

package notification

import (
	"time"

	domainDevice "movapp-backend/internal/domain/device"

	"github.com/google/uuid"
)

type RegisterTokenRequest struct {
	DeviceID  string `json:"deviceId" validate:"required,max=255"`
	PushToken string `json:"pushToken" validate:"required,max=255"`
}

type ToggleRequest struct {
	DeviceID string `json:"deviceId" validate:"required,max=255"`
	Enabled  *bool  `json:"enabled" validate:"required"`
}

type SendToDeviceRequest struct {
	DeviceID string            `json:"deviceId" validate:"required,max=255"`
	Title    string            `json:"title" validate:"required,max=120"`
	Body     string            `json:"body" validate:"required,max=500"`
	Data     map[string]string `json:"data"`
}

type SendToUserRequest struct {
	UserUUID uuid.UUID         `json:"userUuid" validate:"required"`
	Title    string            `json:"title" validate:"required,max=120"`
	Body     string            `json:"body" validate:"required,max=500"`
	Data     map[string]string `json:"data"`
}

type DeviceStatus struct {
	DeviceID    string    `json:"deviceId"`
	PushEnabled bool      `json:"pushEnabled"`
	HasToken    bool      `json:"hasToken"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type SendResult struct {
	Sent    int      `json:"sent"`
	Tickets []Ticket `json:"tickets"`
}

func toDeviceStatus(d *domainDevice.Device) *DeviceStatus {
	return &DeviceStatus{
		DeviceID:    d.DeviceID,
		PushEnabled: d.PushEnabled,
		HasToken:    d.PushToken != nil && *d.PushToken != "",
		UpdatedAt:   d.UpdatedAt,
	}
}

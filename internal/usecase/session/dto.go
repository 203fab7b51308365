package session

import (
	"time"

	domainDevice "movapp-backend/internal/domain/device"
	domainUser "movapp-backend/internal/domain/user"

	"github.com/google/uuid"
)

type DeviceInfo struct {
	DeviceID   string `json:"deviceId" validate:"omitempty,max=255"`
	Label      string `json:"deviceLabel" validate:"omitempty,max=255"`
	Platform   string `json:"platform" validate:"omitempty,max=50"`
	Model      string `json:"model" validate:"omitempty,max=255"`
	AppVersion string `json:"appVersion" validate:"omitempty,max=50"`
}

type RegisterRequest struct {
	Name       string      `json:"name" validate:"required,min=2,max=150"`
	Email      string      `json:"email" validate:"required,email"`
	Phone      string      `json:"phone" validate:"required,phone"`
	CountryID  int         `json:"countryId" validate:"required,gt=0"`
	PostalCode *string     `json:"postalCode" validate:"omitempty,max=20"`
	Password   string      `json:"password" validate:"required"`
	Device     *DeviceInfo `json:"device" validate:"omitempty"`
}

type LoginRequest struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required"`
	Device   *DeviceInfo `json:"device" validate:"omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	DeviceID     string `json:"deviceId"`
}

type RevokeDeviceRequest struct {
	DeviceID string `json:"deviceId" validate:"required,max=255"`
}

type RecoverRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string      `json:"email" validate:"required,email"`
	Code        string      `json:"code" validate:"required,min=4,max=12"`
	NewPassword string      `json:"newPassword" validate:"required"`
	Device      *DeviceInfo `json:"device" validate:"omitempty"`
}

type UserResponse struct {
	UUID       uuid.UUID `json:"uuid"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	CountryID  int       `json:"countryId"`
	PostalCode *string   `json:"postalCode,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type DeviceResponse struct {
	DeviceID     string    `json:"deviceId"`
	Label        string    `json:"deviceLabel,omitempty"`
	Platform     string    `json:"platform,omitempty"`
	Model        string    `json:"model,omitempty"`
	AppVersion   string    `json:"appVersion,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	Revoked      bool      `json:"revoked"`
	PushEnabled  bool      `json:"pushEnabled"`
	LastSeenAt   time.Time `json:"lastSeenAt"`
}

// Session is what CreateSession hands back. Device is nil when the caller
// supplied no device id.
type Session struct {
	AccessToken string          `json:"accessToken"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	Device      *DeviceResponse `json:"device"`
}

type AuthResponse struct {
	User *UserResponse `json:"user"`
	Session
}

type RefreshResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type DeleteAccountResponse struct {
	Message string `json:"message"`
}

func ToUserResponse(u *domainUser.User) *UserResponse {
	return &UserResponse{
		UUID:       u.UUID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		CountryID:  u.CountryID,
		PostalCode: u.PostalCode,
		CreatedAt:  u.CreatedAt,
	}
}

func ToDeviceResponse(d *domainDevice.Device) *DeviceResponse {
	return &DeviceResponse{
		DeviceID:    d.DeviceID,
		Label:       d.Label,
		Platform:    d.Platform,
		Model:       d.Model,
		AppVersion:  d.AppVersion,
		Revoked:     d.Revoked,
		PushEnabled: d.PushEnabled,
		LastSeenAt:  d.LastSeenAt,
	}
}

package models

import (
	"time"
)

// DeviceModel represents the database model for Devices.
type DeviceModel struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	DeviceID    string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Label       string    `gorm:"column:device_label;type:varchar(255)"`
	Platform    string    `gorm:"type:varchar(50)"`
	Model       string    `gorm:"type:varchar(255)"`
	AppVersion  string    `gorm:"type:varchar(50)"`
	UserID      uint64    `gorm:"not null;index"`
	RefreshHash *string   `gorm:"type:varchar(128)"`
	Revoked     bool      `gorm:"not null;default:false"`
	PushToken   *string   `gorm:"type:varchar(255)"`
	PushEnabled bool      `gorm:"not null;default:false"`
	LastSeenAt  time.Time `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (DeviceModel) TableName() string {
	return "devices"
}

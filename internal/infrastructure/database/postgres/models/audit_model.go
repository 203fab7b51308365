package models

import "time"

type AuditLogModel struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    *uint64   `gorm:"index"`
	DeviceID  *string   `gorm:"type:varchar(255)"`
	Action    string    `gorm:"type:varchar(100);not null"`
	Success   bool      `gorm:"not null"`
	IP        string    `gorm:"column:ip_address;type:varchar(64)"`
	UserAgent string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
}

func (AuditLogModel) TableName() string {
	return "audit_logs"
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainDevice "movapp-backend/internal/domain/device"
	"movapp-backend/internal/infrastructure/database/postgres/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ domainDevice.Repository = (*DeviceRepository)(nil)

// DeviceRepository implements domain.Device.Repository interface
type DeviceRepository struct {
	db *DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Upsert(ctx context.Context, d *domainDevice.Device) (*domainDevice.Device, error) {
	now := time.Now()
	dbModel := toDeviceModel(d)
	dbModel.Revoked = false
	dbModel.LastSeenAt = now
	dbModel.CreatedAt = now
	dbModel.UpdatedAt = now

	err := r.db.conn(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "device_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"device_label": dbModel.Label,
					"platform":     dbModel.Platform,
					"model":        dbModel.Model,
					"app_version":  dbModel.AppVersion,
					"user_id":      dbModel.UserID,
					"refresh_hash": gorm.Expr("COALESCE(EXCLUDED.refresh_hash, devices.refresh_hash)"),
					"revoked":      false,
					"last_seen_at": now,
					"updated_at":   now,
				}),
			},
			clause.Returning{},
		).
		Create(dbModel).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert device: %w", err)
	}

	return toDeviceEntity(dbModel), nil
}

func (r *DeviceRepository) GetByID(ctx context.Context, id uint64) (*domainDevice.Device, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *DeviceRepository) GetByDeviceID(ctx context.Context, deviceID string) (*domainDevice.Device, error) {
	return r.first(ctx, "device_id = ?", deviceID)
}

func (r *DeviceRepository) ListByUser(ctx context.Context, userID uint64) ([]*domainDevice.Device, error) {
	var dbModels []models.DeviceModel
	err := r.db.conn(ctx).
		Where("user_id = ?", userID).
		Order("last_seen_at DESC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	devices := make([]*domainDevice.Device, 0, len(dbModels))
	for i := range dbModels {
		devices = append(devices, toDeviceEntity(&dbModels[i]))
	}
	return devices, nil
}

func (r *DeviceRepository) Revoke(ctx context.Context, deviceID string) (bool, error) {
	result := r.db.conn(ctx).
		Model(&models.DeviceModel{}).
		Where("device_id = ?", deviceID).
		Updates(map[string]interface{}{
			"revoked":      true,
			"push_enabled": false,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to revoke device: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *DeviceRepository) RevokeAllForUser(ctx context.Context, userID uint64) (int64, error) {
	result := r.db.conn(ctx).
		Model(&models.DeviceModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"revoked":      true,
			"push_enabled": false,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to revoke user devices: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *DeviceRepository) SetPushToken(ctx context.Context, deviceID string, token *string, enabled bool) (*domainDevice.Device, error) {
	return r.update(ctx, deviceID, map[string]interface{}{
		"push_token":   token,
		"push_enabled": enabled,
		"updated_at":   time.Now(),
	})
}

func (r *DeviceRepository) SetPushEnabled(ctx context.Context, deviceID string, enabled bool) (*domainDevice.Device, error) {
	return r.update(ctx, deviceID, map[string]interface{}{
		"push_enabled": enabled,
		"updated_at":   time.Now(),
	})
}

func (r *DeviceRepository) update(ctx context.Context, deviceID string, fields map[string]interface{}) (*domainDevice.Device, error) {
	var dbModel models.DeviceModel
	result := r.db.conn(ctx).
		Model(&dbModel).
		Clauses(clause.Returning{}).
		Where("device_id = ?", deviceID).
		Updates(fields)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to update device: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domainDevice.ErrDeviceNotFound
	}

	return toDeviceEntity(&dbModel), nil
}

func (r *DeviceRepository) first(ctx context.Context, query string, args ...interface{}) (*domainDevice.Device, error) {
	var dbModel models.DeviceModel
	err := r.db.conn(ctx).Where(query, args...).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainDevice.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return toDeviceEntity(&dbModel), nil
}

func toDeviceModel(d *domainDevice.Device) *models.DeviceModel {
	return &models.DeviceModel{
		ID:          d.ID,
		DeviceID:    d.DeviceID,
		Label:       d.Label,
		Platform:    d.Platform,
		Model:       d.Model,
		AppVersion:  d.AppVersion,
		UserID:      d.UserID,
		RefreshHash: d.RefreshHash,
		Revoked:     d.Revoked,
		PushToken:   d.PushToken,
		PushEnabled: d.PushEnabled,
		LastSeenAt:  d.LastSeenAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toDeviceEntity(m *models.DeviceModel) *domainDevice.Device {
	return &domainDevice.Device{
		ID:          m.ID,
		DeviceID:    m.DeviceID,
		Label:       m.Label,
		Platform:    m.Platform,
		Model:       m.Model,
		AppVersion:  m.AppVersion,
		UserID:      m.UserID,
		RefreshHash: m.RefreshHash,
		Revoked:     m.Revoked,
		PushToken:   m.PushToken,
		PushEnabled: m.PushEnabled,
		LastSeenAt:  m.LastSeenAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainDevice "movapp-backend/internal/domain/device"
	"movapp-backend/internal/infrastructure/database/postgres/models"

	"gorm.io/gorm"
)

var _ domainDevice.RefreshTokenRepository = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	db *DB
}

func NewRefreshTokenRepository(db *DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t *domainDevice.RefreshToken) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	dbModel := &models.RefreshTokenModel{
		UserID:    t.UserID,
		DeviceID:  t.DeviceID,
		TokenHash: t.TokenHash,
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.CreatedAt,
	}
	if err := r.db.conn(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}

	t.ID = dbModel.ID
	return nil
}

func (r *RefreshTokenRepository) FindValid(ctx context.Context, tokenHash string, deviceID *uint64, now time.Time) (*domainDevice.RefreshToken, error) {
	query := r.db.conn(ctx).Where("token_hash = ? AND expires_at > ?", tokenHash, now)
	if deviceID != nil {
		query = query.Where("device_id = ?", *deviceID)
	}

	var dbModel models.RefreshTokenModel
	err := query.Order("created_at DESC").First(&dbModel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainDevice.ErrRefreshTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return &domainDevice.RefreshToken{
		ID:        dbModel.ID,
		UserID:    dbModel.UserID,
		DeviceID:  dbModel.DeviceID,
		TokenHash: dbModel.TokenHash,
		ExpiresAt: dbModel.ExpiresAt,
		CreatedAt: dbModel.CreatedAt,
	}, nil
}

func (r *RefreshTokenRepository) DeleteAllForUser(ctx context.Context, userID uint64) (int64, error) {
	result := r.db.conn(ctx).
		Where("user_id = ?", userID).
		Delete(&models.RefreshTokenModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete refresh tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.conn(ctx).
		Where("expires_at < ?", before).
		Delete(&models.RefreshTokenModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

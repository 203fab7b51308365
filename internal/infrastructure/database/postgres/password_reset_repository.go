package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainUser "movapp-backend/internal/domain/user"
	"movapp-backend/internal/infrastructure/database/postgres/models"

	"gorm.io/gorm"
)

var _ domainUser.PasswordResetRepository = (*PasswordResetRepository)(nil)

type PasswordResetRepository struct {
	db *DB
}

func NewPasswordResetRepository(db *DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) Create(ctx context.Context, t *domainUser.PasswordResetToken) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	dbModel := &models.PasswordResetTokenModel{
		UserID:    t.UserID,
		Code:      t.Code,
		ExpiresAt: t.ExpiresAt,
		Used:      t.Used,
		CreatedAt: t.CreatedAt,
	}
	if err := r.db.conn(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create reset code: %w", err)
	}

	t.ID = dbModel.ID
	return nil
}

func (r *PasswordResetRepository) FindRedeemable(ctx context.Context, userID uint64, code string, now time.Time) (*domainUser.PasswordResetToken, error) {
	var dbModel models.PasswordResetTokenModel
	err := r.db.conn(ctx).
		Where("user_id = ? AND token_hash = ? AND used = FALSE AND expires_at > ?", userID, code, now).
		Order("created_at DESC").
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainUser.ErrResetCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset code: %w", err)
	}

	return &domainUser.PasswordResetToken{
		ID:        dbModel.ID,
		UserID:    dbModel.UserID,
		Code:      dbModel.Code,
		ExpiresAt: dbModel.ExpiresAt,
		Used:      dbModel.Used,
		CreatedAt: dbModel.CreatedAt,
	}, nil
}

func (r *PasswordResetRepository) MarkUsed(ctx context.Context, userID uint64, code string) error {
	err := r.db.conn(ctx).
		Model(&models.PasswordResetTokenModel{}).
		Where("user_id = ? AND token_hash = ? AND used = FALSE", userID, code).
		Update("used", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark reset code used: %w", err)
	}
	return nil
}

func (r *PasswordResetRepository) CountOutstanding(ctx context.Context, userID uint64, since, now time.Time) (int64, error) {
	var count int64
	err := r.db.conn(ctx).
		Model(&models.PasswordResetTokenModel{}).
		Where("user_id = ? AND used = FALSE AND expires_at > ? AND created_at > ?", userID, now, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count reset codes: %w", err)
	}
	return count, nil
}

func (r *PasswordResetRepository) DeleteAllForUser(ctx context.Context, userID uint64) error {
	err := r.db.conn(ctx).
		Where("user_id = ?", userID).
		Delete(&models.PasswordResetTokenModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete reset codes: %w", err)
	}
	return nil
}

func (r *PasswordResetRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.conn(ctx).
		Where("expires_at < ?", before).
		Delete(&models.PasswordResetTokenModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired reset codes: %w", result.Error)
	}
	return result.RowsAffected, nil
}

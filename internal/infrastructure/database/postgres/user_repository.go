package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainUser "movapp-backend/internal/domain/user"
	"movapp-backend/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var _ domainUser.Repository = (*UserRepository)(nil)

// UserRepository implements domain.User.Repository interface
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domainUser.User) error {
	now := time.Now()
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	u.Active = true
	u.CreatedAt = now
	u.UpdatedAt = now

	dbModel := toUserModel(u)
	if err := r.db.conn(ctx).Create(dbModel).Error; err != nil {
		if isUniqueViolation(err) {
			return domainUser.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.ID = dbModel.ID
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*domainUser.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) GetActiveByEmail(ctx context.Context, email string) (*domainUser.User, error) {
	return r.first(ctx, "email = ? AND active = TRUE", email)
}

func (r *UserRepository) GetActiveByUUID(ctx context.Context, userID uuid.UUID) (*domainUser.User, error) {
	return r.first(ctx, "user_uuid = ? AND active = TRUE", userID)
}

func (r *UserRepository) GetLatestByEmail(ctx context.Context, email string) (*domainUser.User, error) {
	var dbModel models.UserModel
	err := r.db.conn(ctx).
		Where("email = ?", email).
		Order("active DESC").
		Order("updated_at DESC").
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainUser.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return toUserEntity(&dbModel), nil
}

func (r *UserRepository) Reactivate(ctx context.Context, u *domainUser.User) error {
	u.UpdatedAt = time.Now()

	result := r.db.conn(ctx).
		Model(&models.UserModel{}).
		Where("id = ? AND active = FALSE", u.ID).
		Updates(map[string]interface{}{
			"name":          u.Name,
			"phone":         u.Phone,
			"country_id":    u.CountryID,
			"postal_code":   u.PostalCode,
			"password_hash": u.PasswordHash,
			"active":        true,
			"updated_at":    u.UpdatedAt,
		})

	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domainUser.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to reactivate user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainUser.ErrUserNotFound
	}

	u.Active = true
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	result := r.db.conn(ctx).
		Model(&models.UserModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainUser.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) Deactivate(ctx context.Context, id uint64) error {
	result := r.db.conn(ctx).
		Model(&models.UserModel{}).
		Where("id = ? AND active = TRUE", id).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to deactivate user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainUser.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) first(ctx context.Context, query string, args ...interface{}) (*domainUser.User, error) {
	var dbModel models.UserModel
	err := r.db.conn(ctx).Where(query, args...).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainUser.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toUserEntity(&dbModel), nil
}

func toUserModel(u *domainUser.User) *models.UserModel {
	return &models.UserModel{
		ID:           u.ID,
		UUID:         u.UUID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		CountryID:    u.CountryID,
		PostalCode:   u.PostalCode,
		PasswordHash: u.PasswordHash,
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toUserEntity(m *models.UserModel) *domainUser.User {
	return &domainUser.User{
		ID:           m.ID,
		UUID:         m.UUID,
		Name:         m.Name,
		Email:        m.Email,
		Phone:        m.Phone,
		CountryID:    m.CountryID,
		PostalCode:   m.PostalCode,
		PasswordHash: m.PasswordHash,
		Active:       m.Active,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for user repository operations
type Repository interface {
	// Create returns ErrUserAlreadyExists when an active user holds the email.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uint64) (*User, error)
	GetActiveByEmail(ctx context.Context, email string) (*User, error)
	GetActiveByUUID(ctx context.Context, userID uuid.UUID) (*User, error)
	// GetLatestByEmail looks at active and inactive rows, active first.
	GetLatestByEmail(ctx context.Context, email string) (*User, error)
	// Reactivate overwrites the profile and password of an inactive user and flips it active.
	Reactivate(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
	// Deactivate returns ErrUserNotFound when no active row matched.
	Deactivate(ctx context.Context, id uint64) error
}

// PasswordResetRepository defines the interface for password reset codes
type PasswordResetRepository interface {
	Create(ctx context.Context, token *PasswordResetToken) error
	// FindRedeemable returns ErrResetCodeNotFound unless an unused, unexpired row matches.
	FindRedeemable(ctx context.Context, userID uint64, code string, now time.Time) (*PasswordResetToken, error)
	MarkUsed(ctx context.Context, userID uint64, code string) error
	// CountOutstanding counts unused, unexpired codes created since since.
	CountOutstanding(ctx context.Context, userID uint64, since, now time.Time) (int64, error)
	DeleteAllForUser(ctx context.Context, userID uint64) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

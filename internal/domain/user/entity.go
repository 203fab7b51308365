package user

import (
	"time"

	"github.com/google/uuid"
)

// User is an account. ID is internal; UUID is the only identifier clients see.
type User struct {
	ID           uint64
	UUID         uuid.UUID
	Name         string
	Email        string
	Phone        string
	CountryID    int
	PostalCode   *string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PasswordResetToken struct {
	ID        uint64
	UserID    uint64
	Code      string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

func (t *PasswordResetToken) Redeemable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}

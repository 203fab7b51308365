package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for order persistence
type Repository interface {
	// Create stores the order and its items atomically and fills in ID and OrderNumber.
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id uint64) (*Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*Order, error)
	ListPaidByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error)
	SetPaymentReference(ctx context.Context, id uint64, reference string) error
	// ApplyPaymentStatus overwrites the status when the transition is allowed.
	ApplyPaymentStatus(ctx context.Context, id uint64, status PaymentStatus, reference string) (Transition, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, record *PaymentRecord) error
	GetByIntent(ctx context.Context, intentID string) (*PaymentRecord, error)
	// UpdateStatusByIntent never moves a succeeded record to another status.
	UpdateStatusByIntent(ctx context.Context, intentID, status, observations string) (bool, error)
	ListLegacyByOrder(ctx context.Context, orderID uint64) ([]*LegacyPayment, error)
}

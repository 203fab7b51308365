package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainOrder "movapp-backend/internal/domain/order"
	"movapp-backend/internal/infrastructure/database/postgres/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const statusSucceeded = "succeeded"

var _ domainOrder.PaymentRepository = (*PaymentRepository)(nil)

type PaymentRepository struct {
	db *DB
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domainOrder.PaymentRecord) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Gateway == "" {
		p.Gateway = "stripe"
	}

	metadata := datatypes.JSONMap{}
	for k, v := range p.Metadata {
		metadata[k] = v
	}

	dbModel := &models.StripePaymentModel{
		OrderID:      p.OrderID,
		UserID:       p.UserID,
		Email:        p.Email,
		AmountCents:  p.AmountCents,
		Currency:     p.Currency,
		Description:  p.Description,
		IntentID:     p.IntentID,
		Gateway:      p.Gateway,
		Status:       p.Status,
		Observations: p.Observations,
		Metadata:     metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.db.conn(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create payment record: %w", err)
	}

	p.ID = dbModel.ID
	return nil
}

func (r *PaymentRepository) GetByIntent(ctx context.Context, intentID string) (*domainOrder.PaymentRecord, error) {
	var dbModel models.StripePaymentModel
	err := r.db.conn(ctx).Where("payment_intent_id = ?", intentID).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainOrder.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment record: %w", err)
	}

	return &domainOrder.PaymentRecord{
		ID:           dbModel.ID,
		OrderID:      dbModel.OrderID,
		UserID:       dbModel.UserID,
		Email:        dbModel.Email,
		AmountCents:  dbModel.AmountCents,
		Currency:     dbModel.Currency,
		Description:  dbModel.Description,
		IntentID:     dbModel.IntentID,
		Gateway:      dbModel.Gateway,
		Status:       dbModel.Status,
		Observations: dbModel.Observations,
		Metadata:     map[string]interface{}(dbModel.Metadata),
		CreatedAt:    dbModel.CreatedAt,
		UpdatedAt:    dbModel.UpdatedAt,
	}, nil
}

func (r *PaymentRepository) UpdateStatusByIntent(ctx context.Context, intentID, status, observations string) (bool, error) {
	query := r.db.conn(ctx).
		Model(&models.StripePaymentModel{}).
		Where("payment_intent_id = ?", intentID)
	if status != statusSucceeded {
		query = query.Where("status <> ?", statusSucceeded)
	}

	result := query.Updates(map[string]interface{}{
		"status":       status,
		"observations": observations,
		"updated_at":   time.Now(),
	})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update payment status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *PaymentRepository) ListLegacyByOrder(ctx context.Context, orderID uint64) ([]*domainOrder.LegacyPayment, error) {
	var dbModels []models.MPPaymentModel
	err := r.db.conn(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy payments: %w", err)
	}

	payments := make([]*domainOrder.LegacyPayment, 0, len(dbModels))
	for _, m := range dbModels {
		payments = append(payments, &domainOrder.LegacyPayment{
			ID:            m.ID,
			OrderID:       m.OrderID,
			UserID:        m.UserID,
			ExternalID:    m.ExternalID,
			Status:        m.Status,
			StatusDetail:  m.StatusDetail,
			Amount:        m.Amount,
			PaymentMethod: m.PaymentMethod,
			PaymentType:   m.PaymentType,
			Currency:      m.Currency,
			CreatedAt:     m.CreatedAt,
		})
	}
	return payments, nil
}

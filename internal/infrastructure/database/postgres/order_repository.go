package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainOrder "movapp-backend/internal/domain/order"
	"movapp-backend/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ domainOrder.Repository = (*OrderRepository)(nil)

type OrderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and its items in one transaction (gorm saves the
// Items association inside the Create call).
func (r *OrderRepository) Create(ctx context.Context, o *domainOrder.Order) error {
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.PaymentStatus == "" {
		o.PaymentStatus = domainOrder.PaymentPending
	}

	dbModel := toOrderModel(o)
	if err := r.db.conn(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	created := toOrderEntity(dbModel)
	*o = *created
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uint64) (*domainOrder.Order, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domainOrder.Order, error) {
	return r.first(ctx, "order_number = ?", orderNumber)
}

func (r *OrderRepository) ListPaidByUser(ctx context.Context, userID uuid.UUID) ([]*domainOrder.Order, error) {
	var dbModels []models.OrderModel
	err := r.db.conn(ctx).
		Preload("Items").
		Joins("JOIN users ON users.id = orders.user_id").
		Where("users.user_uuid = ? AND orders.payment_status = ?", userID, string(domainOrder.PaymentPaid)).
		Order("orders.created_at DESC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list paid orders: %w", err)
	}

	orders := make([]*domainOrder.Order, 0, len(dbModels))
	for i := range dbModels {
		orders = append(orders, toOrderEntity(&dbModels[i]))
	}
	return orders, nil
}

func (r *OrderRepository) SetPaymentReference(ctx context.Context, id uint64, reference string) error {
	result := r.db.conn(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_reference": reference,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set payment reference: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainOrder.ErrOrderNotFound
	}
	return nil
}

// ApplyPaymentStatus locks the order row so concurrent deliveries for the
// same order are applied one after another.
func (r *OrderRepository) ApplyPaymentStatus(ctx context.Context, id uint64, status domainOrder.PaymentStatus, reference string) (domainOrder.Transition, error) {
	var transition domainOrder.Transition

	err := r.db.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var dbModel models.OrderModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&dbModel).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainOrder.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock order: %w", err)
		}

		current := domainOrder.PaymentStatus(dbModel.PaymentStatus)
		transition = domainOrder.Transition{From: current, To: current}
		if !current.CanTransition(status) {
			return nil
		}

		fields := map[string]interface{}{
			"payment_status": string(status),
			"updated_at":     time.Now(),
		}
		if reference != "" {
			fields["payment_reference"] = reference
		}
		if err := tx.Model(&models.OrderModel{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return fmt.Errorf("failed to update payment status: %w", err)
		}

		transition.To = status
		return nil
	})
	if err != nil {
		return domainOrder.Transition{}, err
	}
	return transition, nil
}

func (r *OrderRepository) first(ctx context.Context, query string, args ...interface{}) (*domainOrder.Order, error) {
	var dbModel models.OrderModel
	err := r.db.conn(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where(query, args...).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainOrder.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return toOrderEntity(&dbModel), nil
}

func toOrderModel(o *domainOrder.Order) *models.OrderModel {
	items := make([]models.OrderItemModel, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, models.OrderItemModel{
			ProductID:   it.ProductID,
			SKU:         it.SKU,
			Name:        it.Name,
			Description: it.Description,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			Subtotal:    it.Subtotal,
		})
	}

	return &models.OrderModel{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		UserID:           o.UserID,
		Email:            o.Email,
		CountryID:        o.CountryID,
		Subtotal:         o.Subtotal,
		Total:            o.Total,
		Currency:         o.Currency,
		PaymentMethod:    o.PaymentMethod,
		PaymentStatus:    string(o.PaymentStatus),
		PaymentReference: o.PaymentReference,
		Items:            items,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func toOrderEntity(m *models.OrderModel) *domainOrder.Order {
	items := make([]domainOrder.LineItem, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, domainOrder.LineItem{
			ID:          it.ID,
			OrderID:     it.OrderID,
			ProductID:   it.ProductID,
			SKU:         it.SKU,
			Name:        it.Name,
			Description: it.Description,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			Subtotal:    it.Subtotal,
		})
	}

	return &domainOrder.Order{
		ID:               m.ID,
		OrderNumber:      m.OrderNumber,
		UserID:           m.UserID,
		Email:            m.Email,
		CountryID:        m.CountryID,
		Subtotal:         m.Subtotal,
		Total:            m.Total,
		Currency:         m.Currency,
		PaymentMethod:    m.PaymentMethod,
		PaymentStatus:    domainOrder.PaymentStatus(m.PaymentStatus),
		PaymentReference: m.PaymentReference,
		Items:            items,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

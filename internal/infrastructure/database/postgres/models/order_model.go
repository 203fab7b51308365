package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderModel represents the database model for Order. OrderNumber is filled
// in by the column default.
type OrderModel struct {
	ID               uint64           `gorm:"primaryKey;autoIncrement"`
	OrderNumber      string           `gorm:"type:varchar(32);default:(-)"`
	UserID           *uint64          `gorm:"index"`
	Email            string           `gorm:"type:varchar(255)"`
	CountryID        int              `gorm:"not null"`
	Subtotal         decimal.Decimal  `gorm:"type:numeric(12,2);not null"`
	Total            decimal.Decimal  `gorm:"type:numeric(12,2);not null"`
	Currency         string           `gorm:"type:varchar(3);not null"`
	PaymentMethod    string           `gorm:"type:varchar(50)"`
	PaymentStatus    string           `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentReference *string          `gorm:"type:varchar(255);index"`
	Items            []OrderItemModel `gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time        `gorm:"not null"`
	UpdatedAt        time.Time        `gorm:"not null"`
}

func (OrderModel) TableName() string {
	return "orders"
}

type OrderItemModel struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	OrderID     uint64          `gorm:"not null;index"`
	ProductID   *int64          `gorm:""`
	SKU         string          `gorm:"type:varchar(100)"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Description string          `gorm:"type:text"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Quantity    int             `gorm:"not null"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}

// StripePaymentModel represents a row of stripe_payments.
type StripePaymentModel struct {
	ID           uint64            `gorm:"primaryKey;autoIncrement"`
	OrderID      *uint64           `gorm:"index"`
	UserID       *uint64           `gorm:"index"`
	Email        string            `gorm:"type:varchar(255)"`
	AmountCents  int64             `gorm:"not null"`
	Currency     string            `gorm:"type:varchar(3);not null"`
	Description  string            `gorm:"type:text"`
	IntentID     string            `gorm:"column:payment_intent_id;type:varchar(255);not null;uniqueIndex"`
	Gateway      string            `gorm:"type:varchar(30);not null;default:'stripe'"`
	Status       string            `gorm:"type:varchar(50);not null"`
	Observations *string           `gorm:"type:text"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt    time.Time         `gorm:"not null"`
	UpdatedAt    time.Time         `gorm:"not null"`
}

func (StripePaymentModel) TableName() string {
	return "stripe_payments"
}

// MPPaymentModel is the legacy MercadoPago payments table.
type MPPaymentModel struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement"`
	OrderID       *uint64         `gorm:"index"`
	UserID        *uint64         `gorm:""`
	ExternalID    string          `gorm:"column:mp_payment_id;type:varchar(100)"`
	Status        string          `gorm:"type:varchar(50)"`
	StatusDetail  string          `gorm:"type:varchar(100)"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2)"`
	PaymentMethod string          `gorm:"type:varchar(50)"`
	PaymentType   string          `gorm:"type:varchar(50)"`
	Currency      string          `gorm:"type:varchar(3)"`
	CreatedAt     time.Time       `gorm:"not null"`
}

func (MPPaymentModel) TableName() string {
	return "mp_payments"
}

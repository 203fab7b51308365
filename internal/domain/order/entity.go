package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// CanTransition reports whether a gateway outcome may overwrite the current status.
// Paid is terminal; repeating the current status is allowed so redelivery is a no-op write.
func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	if s == to {
		return true
	}
	switch s {
	case PaymentPending:
		return to == PaymentPaid || to == PaymentFailed
	case PaymentFailed:
		return to == PaymentPaid
	default:
		return false
	}
}

// Transition is the outcome of applying a gateway status to an order.
type Transition struct {
	From PaymentStatus
	To   PaymentStatus
}

func (t Transition) Changed() bool {
	return t.From != t.To
}

type Order struct {
	ID               uint64
	OrderNumber      string
	UserID           *uint64
	Email            string
	CountryID        int
	Subtotal         decimal.Decimal
	Total            decimal.Decimal
	Currency         string
	PaymentMethod    string
	PaymentStatus    PaymentStatus
	PaymentReference *string
	Items            []LineItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type LineItem struct {
	ID          uint64
	OrderID     uint64
	ProductID   *int64
	SKU         string
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	Quantity    int
	Subtotal    decimal.Decimal
}

// PriceItems fills each line subtotal and returns their sum.
func PriceItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		items[i].Subtotal = items[i].UnitPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity)))
		total = total.Add(items[i].Subtotal)
	}
	return total
}

// PaymentRecord mirrors the gateway's view of a payment intent.
type PaymentRecord struct {
	ID           uint64
	OrderID      *uint64
	UserID       *uint64
	Email        string
	AmountCents  int64
	Currency     string
	Description  string
	IntentID     string
	Gateway      string
	Status       string
	Observations *string
	Metadata     map[string]interface{}
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LegacyPayment is a MercadoPago payment kept for history.
type LegacyPayment struct {
	ID            uint64
	OrderID       *uint64
	UserID        *uint64
	ExternalID    string
	Status        string
	StatusDetail  string
	Amount        decimal.Decimal
	PaymentMethod string
	PaymentType   string
	Currency      string
	CreatedAt     time.Time
}

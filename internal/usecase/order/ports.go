package order

import (
	"context"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=ports.go -destination=mocks_test.go -package=order

// IntentParams is what the gateway needs to open a payment intent.
type IntentParams struct {
	OrderID     uint64
	AmountCents int64
	Currency    string
	Email       string
	Description string
	Metadata    map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Gateway opens payment intents with the card processor.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, params IntentParams) (*Intent, error)
}

// EventStore remembers gateway event ids that were already applied.
type EventStore interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

// PaymentEvent is broadcast once an order becomes paid.
type PaymentEvent struct {
	OrderID     uint64          `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	Status      string          `json:"status"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	Reference   string          `json:"reference"`
}

type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event PaymentEvent) error
}

// PaymentNotifier pushes the payment confirmation to the buyer's devices.
type PaymentNotifier interface {
	NotifyPaymentReceived(ctx context.Context, userID uint64, orderNumber string, amount decimal.Decimal, currency string) error
}

type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

package order

import (
	"time"

	domainOrder "movapp-backend/internal/domain/order"

	"github.com/shopspring/decimal"
)

type ItemRequest struct {
	ProductID   *int64          `json:"productId"`
	SKU         string          `json:"sku" validate:"omitempty,max=100"`
	Name        string          `json:"name" validate:"omitempty,max=255"`
	Description string          `json:"description" validate:"omitempty,max=1000"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// CreateOrderRequest carries the cart. Any client-side total is ignored.
type CreateOrderRequest struct {
	Email         string        `json:"email" validate:"omitempty,email"`
	CountryID     int           `json:"countryId" validate:"required,gt=0"`
	Items         []ItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string        `json:"paymentMethod" validate:"omitempty,max=50"`
	Currency      string        `json:"currency" validate:"omitempty,currency"`
}

type CreateOrderResponse struct {
	OrderID     uint64 `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

type CreateIntentRequest struct {
	OrderID     uint64 `json:"orderId" validate:"required,gt=0"`
	Description string `json:"description" validate:"omitempty,max=255"`
}

type CreateIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	AmountCents     int64  `json:"amountCents"`
	Currency        string `json:"currency"`
}

type EventResult struct {
	Status string `json:"status"`
}

type LineItemResponse struct {
	ProductID   *int64          `json:"productId,omitempty"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type LegacyPaymentResponse struct {
	ExternalID    string          `json:"externalId"`
	Status        string          `json:"status"`
	StatusDetail  string          `json:"statusDetail,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type OrderResponse struct {
	ID               uint64                   `json:"id"`
	OrderNumber      string                   `json:"orderNumber"`
	Email            string                   `json:"email"`
	CountryID        int                      `json:"countryId"`
	Subtotal         decimal.Decimal          `json:"subtotal"`
	Total            decimal.Decimal          `json:"total"`
	Currency         string                   `json:"currency"`
	PaymentMethod    string                   `json:"paymentMethod"`
	PaymentStatus    string                   `json:"paymentStatus"`
	PaymentReference *string                  `json:"paymentReference,omitempty"`
	Items            []LineItemResponse       `json:"items"`
	LegacyPayments   []*LegacyPaymentResponse `json:"legacyPayments,omitempty"`
	CreatedAt        time.Time                `json:"createdAt"`
}

type PaymentResponse struct {
	OrderID      *uint64                `json:"orderId,omitempty"`
	Email        string                 `json:"email"`
	AmountCents  int64                  `json:"amountCents"`
	Currency     string                 `json:"currency"`
	Description  string                 `json:"description,omitempty"`
	IntentID     string                 `json:"paymentIntentId"`
	Status       string                 `json:"status"`
	Observations *string                `json:"observations,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

func ToOrderResponse(o *domainOrder.Order) *OrderResponse {
	items := make([]LineItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, LineItemResponse{
			ProductID:   it.ProductID,
			SKU:         it.SKU,
			Name:        it.Name,
			Description: it.Description,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			Subtotal:    it.Subtotal,
		})
	}

	return &OrderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
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
	}
}

func ToPaymentResponse(p *domainOrder.PaymentRecord) *PaymentResponse {
	return &PaymentResponse{
		OrderID:      p.OrderID,
		Email:        p.Email,
		AmountCents:  p.AmountCents,
		Currency:     p.Currency,
		Description:  p.Description,
		IntentID:     p.IntentID,
		Status:       p.Status,
		Observations: p.Observations,
		Metadata:     p.Metadata,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

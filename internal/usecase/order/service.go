package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainOrder "movapp-backend/internal/domain/order"
	domainUser "movapp-backend/internal/domain/user"
	"movapp-backend/internal/logger"
	appErrors "movapp-backend/pkg/errors"
	"movapp-backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultCurrency    = "MXN"
	defaultItemName    = "Sin nombre"
	defaultDescription = "Compra aplicacion MovApp"
	gatewayStripe      = "stripe"

	maxItemQuantity = 10000
)

// maxOrderTotal is the first amount numeric(12,2) cannot hold.
var maxOrderTotal = decimal.New(1, 10)

// Dependencies groups the collaborators of the order service. Events,
// Publisher, Notifier and Mailer are optional.
type Dependencies struct {
	Orders    domainOrder.Repository
	Payments  domainOrder.PaymentRepository
	Users     domainUser.Repository
	Gateway   Gateway
	Events    EventStore
	Publisher EventPublisher
	Notifier  PaymentNotifier
	Mailer    Mailer
}

type Service struct {
	orders    domainOrder.Repository
	payments  domainOrder.PaymentRepository
	users     domainUser.Repository
	gateway   Gateway
	events    EventStore
	publisher EventPublisher
	notifier  PaymentNotifier
	mailer    Mailer
}

func NewService(deps Dependencies) *Service {
	return &Service{
		orders:    deps.Orders,
		payments:  deps.Payments,
		users:     deps.Users,
		gateway:   deps.Gateway,
		events:    deps.Events,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		mailer:    deps.Mailer,
	}
}

// CreateOrder prices the cart on the server and stores it as pending.
// userID is the authenticated buyer, nil for guest checkout.
func (s *Service) CreateOrder(ctx context.Context, userID *uuid.UUID, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, appErrors.ErrInvalidOrder
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}

	items, err := lineItems(req.Items)
	if err != nil {
		return nil, err
	}

	email := utils.SanitizeEmail(req.Email)
	var ownerID *uint64
	if userID != nil {
		user, err := s.users.GetActiveByUUID(ctx, *userID)
		if err != nil {
			if errors.Is(err, domainUser.ErrUserNotFound) {
				return nil, appErrors.ErrUserNotFound
			}
			return nil, err
		}
		ownerID = &user.ID
		if email == "" {
			email = user.Email
		}
	}
	if email == "" {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "email is required", nil)
	}

	subtotal := domainOrder.PriceItems(items)
	if !subtotal.IsPositive() || subtotal.GreaterThanOrEqual(maxOrderTotal) {
		return nil, appErrors.ErrInvalidOrder
	}

	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	order := &domainOrder.Order{
		UserID:        ownerID,
		Email:         email,
		CountryID:     req.CountryID,
		Subtotal:      subtotal,
		Total:         subtotal,
		Currency:      currency,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: domainOrder.PaymentPending,
		Items:         items,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	logger.Info("Order created",
		zap.Uint64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", len(items)),
		zap.String("event", "order_created"),
	)

	return &CreateOrderResponse{OrderID: order.ID, OrderNumber: order.OrderNumber}, nil
}

// CreatePaymentIntent opens a gateway intent for the order total and records it.
func (s *Service) CreatePaymentIntent(ctx context.Context, req *CreateIntentRequest) (*CreateIntentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}

	order, err := s.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, domainOrder.ErrOrderNotFound) {
			return nil, appErrors.ErrOrderNotFound
		}
		return nil, err
	}
	if order.PaymentStatus == domainOrder.PaymentPaid {
		return nil, appErrors.NewAppError(appErrors.CodeInvalidOrder, "order is already paid", nil)
	}

	description := req.Description
	if description == "" {
		description = defaultDescription
	}
	amountCents := toCents(order.Total)

	intent, err := s.gateway.CreatePaymentIntent(ctx, IntentParams{
		OrderID:     order.ID,
		AmountCents: amountCents,
		Currency:    strings.ToLower(order.Currency),
		Email:       order.Email,
		Description: description,
		Metadata:    intentMetadata(order),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	record := &domainOrder.PaymentRecord{
		OrderID:     &order.ID,
		UserID:      order.UserID,
		Email:       order.Email,
		AmountCents: amountCents,
		Currency:    order.Currency,
		Description: description,
		IntentID:    intent.ID,
		Gateway:     gatewayStripe,
		Status:      intent.Status,
		Metadata:    recordMetadata(order),
	}
	if err := s.payments.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store payment record: %w", err)
	}
	if err := s.orders.SetPaymentReference(ctx, order.ID, intent.ID); err != nil {
		return nil, fmt.Errorf("failed to set payment reference: %w", err)
	}

	logger.Info("Payment intent created",
		zap.Uint64("order_id", order.ID),
		zap.String("intent_id", intent.ID),
		zap.Int64("amount_cents", amountCents),
		zap.String("event", "payment_intent_created"),
	)

	return &CreateIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		AmountCents:     amountCents,
		Currency:        order.Currency,
	}, nil
}

func (s *Service) GetPaymentByIntent(ctx context.Context, intentID string) (*PaymentResponse, error) {
	record, err := s.payments.GetByIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, domainOrder.ErrPaymentNotFound) {
			return nil, appErrors.ErrPaymentNotFound
		}
		return nil, err
	}
	return ToPaymentResponse(record), nil
}

// GetOrder returns the order with its items and any legacy MercadoPago payments.
func (s *Service) GetOrder(ctx context.Context, id uint64) (*OrderResponse, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainOrder.ErrOrderNotFound) {
			return nil, appErrors.ErrOrderNotFound
		}
		return nil, err
	}
	return s.withLegacyPayments(ctx, order)
}

func (s *Service) GetOrderByNumber(ctx context.Context, orderNumber string) (*OrderResponse, error) {
	order, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, domainOrder.ErrOrderNotFound) {
			return nil, appErrors.ErrOrderNotFound
		}
		return nil, err
	}
	return s.withLegacyPayments(ctx, order)
}

func (s *Service) ListPaidOrders(ctx context.Context, userID uuid.UUID) ([]*OrderResponse, error) {
	orders, err := s.orders.ListPaidByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]*OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, ToOrderResponse(o))
	}
	return resp, nil
}

func (s *Service) withLegacyPayments(ctx context.Context, order *domainOrder.Order) (*OrderResponse, error) {
	resp := ToOrderResponse(order)

	legacy, err := s.payments.ListLegacyByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	for _, p := range legacy {
		resp.LegacyPayments = append(resp.LegacyPayments, &LegacyPaymentResponse{
			ExternalID:    p.ExternalID,
			Status:        p.Status,
			StatusDetail:  p.StatusDetail,
			Amount:        p.Amount,
			PaymentMethod: p.PaymentMethod,
			CreatedAt:     p.CreatedAt,
		})
	}
	return resp, nil
}

func lineItems(reqs []ItemRequest) ([]domainOrder.LineItem, error) {
	items := make([]domainOrder.LineItem, 0, len(reqs))
	for _, r := range reqs {
		if r.Quantity < 0 || r.Quantity > maxItemQuantity || r.Price.IsNegative() {
			return nil, appErrors.ErrInvalidOrder
		}

		quantity := r.Quantity
		if quantity == 0 {
			quantity = 1
		}
		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = defaultItemName
		}

		items = append(items, domainOrder.LineItem{
			ProductID:   r.ProductID,
			SKU:         r.SKU,
			Name:        utils.SanitizeText(name),
			Description: utils.SanitizeText(r.Description),
			UnitPrice:   r.Price.Round(2),
			Quantity:    quantity,
		})
	}
	return items, nil
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

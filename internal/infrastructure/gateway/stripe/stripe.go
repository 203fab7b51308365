package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"movapp-backend/internal/config"
	domainOrder "movapp-backend/internal/domain/order"
	"movapp-backend/internal/logger"
	"movapp-backend/internal/usecase/order"
	appErrors "movapp-backend/pkg/errors"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
)

// Gateway talks to Stripe: it opens payment intents and verifies webhooks.
type Gateway struct {
	intents       *paymentintent.Client
	webhookSecret string
}

func NewGateway(cfg config.StripeConfig) *Gateway {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:    &http.Client{Timeout: timeout},
		LeveledLogger: logger.Logger.Sugar(),
	})

	return &Gateway{
		intents:       &paymentintent.Client{B: backend, Key: cfg.SecretKey},
		webhookSecret: cfg.WebhookSecret,
	}
}

func (g *Gateway) CreatePaymentIntent(ctx context.Context, p order.IntentParams) (*order.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(p.AmountCents),
		Currency:    stripe.String(p.Currency),
		Description: stripe.String(p.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if p.Email != "" {
		params.ReceiptEmail = stripe.String(p.Email)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := g.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: %w", err)
	}

	return &order.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

// ParseWebhook verifies the Stripe-Signature header and translates the event.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (*domainOrder.GatewayEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeInvalidSignature, "invalid webhook signature", err)
	}

	out := &domainOrder.GatewayEvent{
		ID:      event.ID,
		Type:    domainOrder.EventOther,
		RawType: string(event.Type),
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypePaymentIntentPaymentFailed:
	default:
		return out, nil
	}

	var intent stripe.PaymentIntent
	if event.Data == nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "event has no data", nil)
	}
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "malformed payment intent", err)
	}

	out.Reference = intent.ID
	out.Email = intent.ReceiptEmail
	if raw, ok := intent.Metadata["order_id"]; ok {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			out.OrderID = &id
		} else {
			logger.Warn("Ignoring malformed order_id metadata",
				zap.String("intent_id", intent.ID),
				zap.String("order_id", raw),
			)
		}
	}

	if event.Type == stripe.EventTypePaymentIntentSucceeded {
		out.Type = domainOrder.EventPaymentSucceeded
		out.RawStatus = statusSucceeded
		if intent.LatestCharge != nil {
			out.Observation = intent.LatestCharge.ID
		}
		return out, nil
	}

	out.Type = domainOrder.EventPaymentFailed
	out.RawStatus = statusFailed
	if e := intent.LastPaymentError; e != nil {
		out.Observation = string(e.DeclineCode)
		if out.Observation == "" {
			out.Observation = e.Msg
		}
	}
	return out, nil
}

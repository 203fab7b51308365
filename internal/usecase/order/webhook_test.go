package order

import (
	"context"
	"errors"
	"testing"

	domainOrder "movapp-backend/internal/domain/order"
	domainUser "movapp-backend/internal/domain/user"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func succeeded(id string, orderID uint64) *domainOrder.GatewayEvent {
	return &domainOrder.GatewayEvent{
		ID:          id,
		Type:        domainOrder.EventPaymentSucceeded,
		RawType:     "payment_intent.succeeded",
		Reference:   "pi_123",
		OrderID:     &orderID,
		RawStatus:   "succeeded",
		Observation: "ch_1",
	}
}

func failed(id string, orderID uint64) *domainOrder.GatewayEvent {
	return &domainOrder.GatewayEvent{
		ID:          id,
		Type:        domainOrder.EventPaymentFailed,
		RawType:     "payment_intent.payment_failed",
		Reference:   "pi_123",
		OrderID:     &orderID,
		RawStatus:   "requires_payment_method",
		Observation: "card_declined",
	}
}

// withIntent creates an order and its stored payment record for pi_123.
func (f *fixture) withIntent(t *testing.T) *CreateOrderResponse {
	t.Helper()
	created := f.createOrder(t, nil)
	f.gateway.EXPECT().CreatePaymentIntent(gomock.Any(), gomock.Any()).
		Return(&Intent{ID: "pi_123", ClientSecret: "secret", Status: "requires_payment_method"}, nil)
	_, err := f.service.CreatePaymentIntent(context.Background(), &CreateIntentRequest{OrderID: created.OrderID})
	require.NoError(t, err)
	return created
}

func (f *fixture) noDedupe() {
	f.events.EXPECT().Seen(gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()
	f.events.EXPECT().MarkProcessed(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func TestApplyGatewayEvent_SucceededIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.noDedupe()
	created := f.withIntent(t)

	f.mailer.EXPECT().Send(gomock.Any(), "buyer@example.com", receiptSubject, gomock.Any()).Return(nil).Times(1)
	f.publisher.EXPECT().PublishPaymentEvent(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e PaymentEvent) error {
			assert.Equal(t, created.OrderNumber, e.OrderNumber)
			assert.Equal(t, "paid", e.Status)
			assert.Equal(t, "pi_123", e.Reference)
			return nil
		}).Times(1)

	for i := 0; i < 2; i++ {
		result, err := f.service.ApplyGatewayEvent(ctx, succeeded("evt_1", created.OrderID))
		require.NoError(t, err)
		assert.Equal(t, "paid", result.Status)
	}

	order, err := f.store.Orders().GetByID(ctx, created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domainOrder.PaymentPaid, order.PaymentStatus)

	records := f.store.PaymentRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "succeeded", records[0].Status)
}

func TestApplyGatewayEvent_FailedAfterPaidIsIgnored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.noDedupe()
	created := f.withIntent(t)
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.publisher.EXPECT().PublishPaymentEvent(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.service.ApplyGatewayEvent(ctx, succeeded("evt_1", created.OrderID))
	require.NoError(t, err)

	result, err := f.service.ApplyGatewayEvent(ctx, failed("evt_2", created.OrderID))
	require.NoError(t, err)
	assert.Equal(t, statusIgnored, result.Status)

	order, err := f.store.Orders().GetByID(ctx, created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domainOrder.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, "succeeded", f.store.PaymentRecords()[0].Status)
}

func TestApplyGatewayEvent_FailedThenSucceeded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.noDedupe()
	created := f.withIntent(t)

	result, err := f.service.ApplyGatewayEvent(ctx, failed("evt_1", created.OrderID))
	require.NoError(t, err)
	assert.Equal(t, "failed", result.Status)
	assert.Equal(t, "card_declined", *f.store.PaymentRecords()[0].Observations)

	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.publisher.EXPECT().PublishPaymentEvent(gomock.Any(), gomock.Any()).Return(nil)

	result, err = f.service.ApplyGatewayEvent(ctx, succeeded("evt_2", created.OrderID))
	require.NoError(t, err)
	assert.Equal(t, "paid", result.Status)
}

func TestApplyGatewayEvent_DuplicateDelivery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created := f.withIntent(t)
	_, err := f.store.Orders().ApplyPaymentStatus(ctx, created.OrderID, domainOrder.PaymentPaid, "pi_123")
	require.NoError(t, err)

	f.events.EXPECT().Seen(gomock.Any(), "evt_1").Return(true, nil)

	result, err := f.service.ApplyGatewayEvent(ctx, succeeded("evt_1", created.OrderID))
	require.NoError(t, err)
	assert.Equal(t, "paid", result.Status)
	assert.Equal(t, "requires_payment_method", f.store.PaymentRecords()[0].Status)
}

func TestApplyGatewayEvent_EventStoreErrorsDoNotBlock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created := f.withIntent(t)

	f.events.EXPECT().Seen(gomock.Any(), gomock.Any()).Return(false, errors.New("redis down"))
	f.events.EXPECT().MarkProcessed(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	result, err := f.service.ApplyGatewayEvent(ctx, failed("evt_1", created.OrderID))
	require.NoError(t, err)
	assert.Equal(t, "failed", result.Status)
}

func TestApplyGatewayEvent_ResolvesOrderFromPaymentRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.noDedupe()
	created := f.withIntent(t)

	event := failed("evt_1", 0)
	event.OrderID = nil

	result, err := f.service.ApplyGatewayEvent(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, "failed", result.Status)

	order, err := f.store.Orders().GetByID(ctx, created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domainOrder.PaymentFailed, order.PaymentStatus)
}

func TestApplyGatewayEvent_Ignored(t *testing.T) {
	ctx := context.Background()

	t.Run("unrelated event type", func(t *testing.T) {
		f := newFixture(t)
		result, err := f.service.ApplyGatewayEvent(ctx, &domainOrder.GatewayEvent{ID: "evt_1", Type: domainOrder.EventOther, RawType: "charge.refunded"})
		require.NoError(t, err)
		assert.Equal(t, statusIgnored, result.Status)
	})

	t.Run("unknown intent without metadata", func(t *testing.T) {
		f := newFixture(t)
		f.noDedupe()
		event := succeeded("evt_1", 0)
		event.OrderID = nil
		event.Reference = "pi_unknown"

		result, err := f.service.ApplyGatewayEvent(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, statusIgnored, result.Status)
	})

	t.Run("order id that does not exist", func(t *testing.T) {
		f := newFixture(t)
		f.noDedupe()

		result, err := f.service.ApplyGatewayEvent(ctx, succeeded("evt_1", 999))
		require.NoError(t, err)
		assert.Equal(t, statusIgnored, result.Status)
	})
}

func TestApplyGatewayEvent_NotifiesBuyer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.noDedupe()

	user := &domainUser.User{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, f.store.Users().Create(ctx, user))
	created := f.createOrder(t, &user.UUID)

	f.mailer.EXPECT().Send(gomock.Any(), "buyer@example.com", receiptSubject, gomock.Any()).Return(errors.New("smtp down"))
	f.notifier.EXPECT().NotifyPaymentReceived(gomock.Any(), user.ID, created.OrderNumber, gomock.Any(), "MXN").
		DoAndReturn(func(_ context.Context, _ uint64, _ string, amount decimal.Decimal, _ string) error {
			assert.True(t, amount.Equal(dec("250")))
			return nil
		})
	f.publisher.EXPECT().PublishPaymentEvent(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	event := succeeded("evt_1", created.OrderID)
	event.Reference = ""

	result, err := f.service.ApplyGatewayEvent(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, "paid", result.Status)
}

package order

import (
	"context"
	"errors"
	"fmt"

	domainOrder "movapp-backend/internal/domain/order"
	"movapp-backend/internal/logger"
	"movapp-backend/internal/metrics"

	"go.uber.org/zap"
)

const statusIgnored = "ignored"

// ApplyGatewayEvent folds a verified gateway event into the order and its
// payment record. Redelivery is a no-op and a failure never overrides a
// completed payment.
func (s *Service) ApplyGatewayEvent(ctx context.Context, event *domainOrder.GatewayEvent) (*EventResult, error) {
	target, ok := event.Type.TargetStatus()
	if !ok {
		s.countEvent(event, metrics.ResultIgnored)
		logger.Debug("Ignoring gateway event",
			zap.String("event_id", event.ID),
			zap.String("type", event.RawType),
		)
		return &EventResult{Status: statusIgnored}, nil
	}

	orderID, err := s.resolveOrderID(ctx, event)
	if err != nil {
		return nil, err
	}

	if s.alreadyProcessed(ctx, event.ID) {
		s.countEvent(event, metrics.ResultIgnored)
		return s.currentStatus(ctx, orderID)
	}

	if event.Reference != "" {
		if _, err := s.payments.UpdateStatusByIntent(ctx, event.Reference, event.RawStatus, event.Observation); err != nil {
			return nil, fmt.Errorf("failed to update payment record: %w", err)
		}
	}

	if orderID == nil {
		logger.Warn("Gateway event references no known order",
			zap.String("event_id", event.ID),
			zap.String("reference", event.Reference),
			zap.String("event", "gateway_event_unmatched"),
		)
		s.countEvent(event, metrics.ResultIgnored)
		return &EventResult{Status: statusIgnored}, nil
	}

	transition, err := s.orders.ApplyPaymentStatus(ctx, *orderID, target, event.Reference)
	if err != nil {
		if errors.Is(err, domainOrder.ErrOrderNotFound) {
			logger.Warn("Gateway event for missing order",
				zap.String("event_id", event.ID),
				zap.Uint64("order_id", *orderID),
				zap.String("event", "gateway_event_unmatched"),
			)
			s.countEvent(event, metrics.ResultIgnored)
			return &EventResult{Status: statusIgnored}, nil
		}
		return nil, fmt.Errorf("failed to apply payment status: %w", err)
	}

	s.markProcessed(ctx, event.ID)

	if transition.To != target {
		logger.Warn("Gateway event would regress a paid order",
			zap.String("event_id", event.ID),
			zap.Uint64("order_id", *orderID),
			zap.String("current_status", string(transition.To)),
			zap.String("event_status", string(target)),
			zap.String("event", "gateway_event_rejected"),
		)
		s.countEvent(event, metrics.ResultIgnored)
		return &EventResult{Status: statusIgnored}, nil
	}

	logger.Info("Gateway event applied",
		zap.String("event_id", event.ID),
		zap.Uint64("order_id", *orderID),
		zap.String("from", string(transition.From)),
		zap.String("to", string(transition.To)),
		zap.String("event", "gateway_event_applied"),
	)
	s.countEvent(event, metrics.ResultSuccess)

	if transition.Changed() && transition.To == domainOrder.PaymentPaid {
		s.announcePayment(ctx, *orderID, event)
	}

	return &EventResult{Status: string(target)}, nil
}

// resolveOrderID prefers the order id carried in the event metadata and falls
// back to the payment record stored for the intent.
func (s *Service) resolveOrderID(ctx context.Context, event *domainOrder.GatewayEvent) (*uint64, error) {
	if event.OrderID != nil {
		return event.OrderID, nil
	}
	if event.Reference == "" {
		return nil, nil
	}

	record, err := s.payments.GetByIntent(ctx, event.Reference)
	if err != nil {
		if errors.Is(err, domainOrder.ErrPaymentNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record.OrderID, nil
}

func (s *Service) currentStatus(ctx context.Context, orderID *uint64) (*EventResult, error) {
	if orderID == nil {
		return &EventResult{Status: statusIgnored}, nil
	}

	order, err := s.orders.GetByID(ctx, *orderID)
	if err != nil {
		if errors.Is(err, domainOrder.ErrOrderNotFound) {
			return &EventResult{Status: statusIgnored}, nil
		}
		return nil, err
	}
	if order.PaymentStatus == domainOrder.PaymentPending {
		return &EventResult{Status: statusIgnored}, nil
	}
	return &EventResult{Status: string(order.PaymentStatus)}, nil
}

// alreadyProcessed treats a store error as "not seen": the status overwrite is
// idempotent on its own.
func (s *Service) alreadyProcessed(ctx context.Context, eventID string) bool {
	if s.events == nil || eventID == "" {
		return false
	}

	seen, err := s.events.Seen(ctx, eventID)
	if err != nil {
		logger.Warn("Failed to check processed gateway events",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return false
	}
	return seen
}

func (s *Service) markProcessed(ctx context.Context, eventID string) {
	if s.events == nil || eventID == "" {
		return
	}
	if err := s.events.MarkProcessed(ctx, eventID); err != nil {
		logger.Warn("Failed to remember gateway event",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
	}
}

// announcePayment sends the receipt, the push notification and the broker
// event. None of them can fail the webhook.
func (s *Service) announcePayment(ctx context.Context, orderID uint64, event *domainOrder.GatewayEvent) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		logger.Warn("Failed to load paid order for notifications",
			zap.Uint64("order_id", orderID),
			zap.Error(err),
		)
		return
	}

	s.sendReceipt(ctx, order, event)

	if s.notifier != nil && order.UserID != nil {
		if err := s.notifier.NotifyPaymentReceived(ctx, *order.UserID, order.OrderNumber, order.Total, order.Currency); err != nil {
			logger.Warn("Failed to push payment notification",
				zap.Uint64("order_id", order.ID),
				zap.Error(err),
				zap.String("event", "payment_push_failed"),
			)
		}
	}

	if s.publisher != nil {
		err := s.publisher.PublishPaymentEvent(ctx, PaymentEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Status:      string(order.PaymentStatus),
			Total:       order.Total,
			Currency:    order.Currency,
			Reference:   event.Reference,
		})
		if err != nil {
			logger.Warn("Failed to publish payment event",
				zap.Uint64("order_id", order.ID),
				zap.Error(err),
				zap.String("event", "payment_publish_failed"),
			)
		}
	}
}

func (s *Service) sendReceipt(ctx context.Context, order *domainOrder.Order, event *domainOrder.GatewayEvent) {
	if s.mailer == nil {
		return
	}

	to := order.Email
	if to == "" {
		to = event.Email
	}
	if to == "" {
		return
	}

	body, err := renderReceipt(order.OrderNumber, order.Total, order.Currency, event.Reference)
	if err == nil {
		err = s.mailer.Send(ctx, to, receiptSubject, body)
	}
	if err != nil {
		logger.Warn("Failed to send payment receipt",
			zap.Uint64("order_id", order.ID),
			zap.Error(err),
			zap.String("event", "receipt_email_failed"),
		)
	}
}

func (s *Service) countEvent(event *domainOrder.GatewayEvent, result string) {
	metrics.GatewayEventsTotal.WithLabelValues(string(event.Type), result).Inc()
}

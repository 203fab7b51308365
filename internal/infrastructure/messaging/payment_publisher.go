package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"movapp-backend/internal/usecase/order"
)

const qosAtLeastOnce byte = 1

type publisher interface {
	Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error
}

// PaymentPublisher announces paid orders on the MQTT broker under
// <prefix>/orders/<order_number>/payment.
type PaymentPublisher struct {
	client publisher
	prefix string
}

func NewPaymentPublisher(client publisher, topicPrefix string) *PaymentPublisher {
	prefix := strings.Trim(topicPrefix, "/")
	if prefix == "" {
		prefix = "movapp"
	}
	return &PaymentPublisher{client: client, prefix: prefix}
}

func (p *PaymentPublisher) PublishPaymentEvent(ctx context.Context, event order.PaymentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode payment event: %w", err)
	}
	return p.client.Publish(ctx, p.Topic(event.OrderNumber), qosAtLeastOnce, false, payload)
}

func (p *PaymentPublisher) Topic(orderNumber string) string {
	return fmt.Sprintf("%s/orders/%s/payment", p.prefix, orderNumber)
}

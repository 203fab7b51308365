package order

type EventType string

const (
	EventPaymentSucceeded EventType = "payment_succeeded"
	EventPaymentFailed    EventType = "payment_failed"
	EventOther            EventType = "other"
)

// GatewayEvent is a verified webhook delivery translated out of the gateway's format.
type GatewayEvent struct {
	ID          string
	Type        EventType
	RawType     string
	Reference   string
	OrderID     *uint64
	RawStatus   string
	Observation string
	Email       string
}

func (e EventType) TargetStatus() (PaymentStatus, bool) {
	switch e {
	case EventPaymentSucceeded:
		return PaymentPaid, true
	case EventPaymentFailed:
		return PaymentFailed, true
	default:
		return "", false
	}
}

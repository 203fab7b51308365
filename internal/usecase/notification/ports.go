package notification

import "context"

//go:generate mockgen -source=ports.go -destination=mocks_test.go -package=notification

type Message struct {
	Tokens []string
	Title  string
	Body   string
	Data   map[string]string
}

// Ticket is the push service's per-token answer.
type Ticket struct {
	Token   string `json:"token"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// PushSender delivers notifications through the push provider.
type PushSender interface {
	ValidToken(token string) bool
	Send(ctx context.Context, msg Message) ([]Ticket, error)
}

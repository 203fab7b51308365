package expo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"movapp-backend/internal/config"
	"movapp-backend/internal/logger"
	"movapp-backend/internal/usecase/notification"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"go.uber.org/zap"
)

// Expo accepts at most 100 messages per request.
const chunkSize = 100

type publisher interface {
	PublishMultiple(messages []expo.PushMessage) ([]expo.PushResponse, error)
}

// Sender delivers notifications through the Expo push service.
type Sender struct {
	client publisher
}

func NewSender(cfg config.PushConfig) *Sender {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Sender{
		client: expo.NewPushClient(&expo.ClientConfig{
			AccessToken: cfg.AccessToken,
			HTTPClient:  &http.Client{Timeout: timeout},
		}),
	}
}

func (s *Sender) ValidToken(token string) bool {
	_, err := expo.NewExponentPushToken(token)
	return err == nil
}

// Send publishes one message per token so every ticket maps back to its token.
func (s *Sender) Send(ctx context.Context, msg notification.Message) ([]notification.Ticket, error) {
	messages := make([]expo.PushMessage, 0, len(msg.Tokens))
	for _, t := range msg.Tokens {
		token, err := expo.NewExponentPushToken(t)
		if err != nil {
			return nil, fmt.Errorf("invalid push token: %w", err)
		}
		messages = append(messages, expo.PushMessage{
			To:       []expo.ExponentPushToken{token},
			Title:    msg.Title,
			Body:     msg.Body,
			Data:     msg.Data,
			Sound:    "default",
			Priority: expo.HighPriority,
		})
	}

	tickets := make([]notification.Ticket, 0, len(messages))
	for start := 0; start < len(messages); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return tickets, err
		}

		end := start + chunkSize
		if end > len(messages) {
			end = len(messages)
		}

		responses, err := s.client.PublishMultiple(messages[start:end])
		if err != nil {
			return tickets, fmt.Errorf("expo publish failed: %w", err)
		}
		for i, resp := range responses {
			ticket := notification.Ticket{
				Token:   msg.Tokens[start+i],
				Status:  resp.Status,
				Message: resp.Message,
			}
			if err := resp.ValidateResponse(); err != nil {
				logger.Warn("Expo rejected push message",
					zap.String("status", resp.Status),
					zap.Error(err),
				)
			}
			tickets = append(tickets, ticket)
		}
	}
	return tickets, nil
}

package session

import "context"

// Transactor runs fn inside one database transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

//go:generate mockgen -source=ports.go -destination=mocks_test.go -package=session

// Mailer delivers an HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// WelcomeNotifier greets a new user on the device they registered from.
type WelcomeNotifier interface {
	SendWelcome(ctx context.Context, deviceID, name string) error
}

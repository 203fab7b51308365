package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"movapp-backend/internal/config"
	"movapp-backend/internal/logger"

	"go.uber.org/zap"
)

const defaultDialTimeout = 10 * time.Second

// SMTPSender sends HTML mail over implicit TLS (port 465).
type SMTPSender struct {
	host        string
	port        int
	username    string
	password    string
	from        string
	dialTimeout time.Duration
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &SMTPSender{
		host:        cfg.Host,
		port:        cfg.Port,
		username:    cfg.User,
		password:    cfg.Password,
		from:        from,
		dialTimeout: defaultDialTimeout,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: s.dialTimeout},
		Config:    &tls.Config{ServerName: s.host},
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to dial smtp server: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(2 * s.dialTimeout))
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return fmt.Errorf("failed to start smtp session: %w", err)
	}
	defer client.Quit()

	if err := client.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
		return fmt.Errorf("smtp auth failed: %w", err)
	}
	if err := client.Mail(s.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildMessage(s.from, to, subject, htmlBody)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	logger.Debug("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	return []byte(
		fmt.Sprintf("From: MovApp <%s>\r\n", from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject)) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			htmlBody,
	)
}

// NoopSender stands in when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) Send(_ context.Context, to, subject, _ string) error {
	logger.Info("SMTP not configured, email skipped",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}

// Sender is the interface both senders satisfy.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// NewSender picks the SMTP sender when credentials are present.
func NewSender(cfg config.SMTPConfig) Sender {
	if !cfg.Enabled() {
		return NoopSender{}
	}
	return NewSMTPSender(cfg)
}

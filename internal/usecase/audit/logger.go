package audit

import (
	"context"
	"time"

	domainAudit "movapp-backend/internal/domain/audit"
	"movapp-backend/internal/logger"

	"go.uber.org/zap"
)

// RequestInfo is the client context attached to audit entries.
type RequestInfo struct {
	IP        string
	UserAgent string
}

// Logger appends security events. It never returns an error to the caller.
type Logger struct {
	repo domainAudit.Repository
	now  func() time.Time
}

func NewLogger(repo domainAudit.Repository) *Logger {
	return &Logger{repo: repo, now: time.Now}
}

func (l *Logger) Log(ctx context.Context, action string, userID *uint64, deviceID string, success bool, req RequestInfo) {
	entry := &domainAudit.Entry{
		UserID:    userID,
		Action:    action,
		Success:   success,
		IP:        req.IP,
		UserAgent: req.UserAgent,
		CreatedAt: l.now(),
	}
	if deviceID != "" {
		entry.DeviceID = &deviceID
	}

	if err := l.repo.Append(ctx, entry); err != nil {
		logger.Error("Failed to write audit entry",
			zap.String("action", action),
			zap.Bool("success", success),
			zap.Error(err),
			zap.String("event", "audit_write_failed"),
		)
	}
}

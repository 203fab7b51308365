package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainAudit "movapp-backend/internal/domain/audit"
	domainUser "movapp-backend/internal/domain/user"
	"movapp-backend/internal/logger"
	"movapp-backend/internal/metrics"
	"movapp-backend/internal/usecase/audit"
	appErrors "movapp-backend/pkg/errors"
	"movapp-backend/pkg/utils"

	"go.uber.org/zap"
)

// SendRecoveryCode emails a short reset code. Outstanding codes are capped
// per user within the configured window. The cap is a read-then-decide check.
func (s *Service) SendRecoveryCode(ctx context.Context, req *RecoverRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.Validation(err)
	}

	user, err := s.activeUserByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	now := s.now()
	window := time.Duration(s.recovery.WindowMinutes) * time.Minute
	outstanding, err := s.resets.CountOutstanding(ctx, user.ID, now.Add(-window), now)
	if err != nil {
		return err
	}
	if outstanding >= int64(s.recovery.MaxAttempts) {
		logger.Warn("Too many recovery requests",
			zap.String("user_uuid", user.UUID.String()),
			zap.Int64("outstanding", outstanding),
			zap.String("event", "recovery_rate_limited"),
		)
		return appErrors.ErrTooManyAttempts
	}

	code, err := utils.GenerateResetCode(s.recovery.CodeLength)
	if err != nil {
		return err
	}

	err = s.resets.Create(ctx, &domainUser.PasswordResetToken{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: now.Add(time.Duration(s.recovery.CodeTTLMinutes) * time.Minute),
		CreatedAt: now,
	})
	if err != nil {
		return err
	}

	body, err := renderRecovery(user.Name, code, s.recovery.CodeTTLMinutes,
		recoveryLink(s.recovery.DeepLinkBase, user.Email, code))
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, user.Email, recoverySubject, body); err != nil {
		return fmt.Errorf("failed to send recovery email: %w", err)
	}

	logger.Info("Recovery code sent",
		zap.String("user_uuid", user.UUID.String()),
		zap.String("event", "recovery_code_sent"),
	)
	return nil
}

// ResetPassword redeems a code, stores the new password and signs the user in.
func (s *Service) ResetPassword(ctx context.Context, req *ResetPasswordRequest, info audit.RequestInfo) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation(err)
	}

	user, err := s.activeUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if _, err := s.resets.FindRedeemable(ctx, user.ID, code, s.now()); err != nil {
		if errors.Is(err, domainUser.ErrResetCodeNotFound) {
			metrics.AuthEvent(domainAudit.ActionResetPassword, appErrors.ErrInvalidResetCode)
			return nil, appErrors.ErrInvalidResetCode
		}
		return nil, err
	}

	password, err := s.newPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
			return err
		}
		return s.resets.MarkUsed(ctx, user.ID, code)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset password: %w", err)
	}
	user.PasswordHash = passwordHash

	session, err := s.CreateSession(ctx, user, req.Device)
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, domainAudit.ActionResetPassword, &user.ID, deviceIDOf(req.Device), true, info)
	metrics.AuthEvent(domainAudit.ActionResetPassword, nil)

	logger.Info("Password reset",
		zap.String("user_uuid", user.UUID.String()),
		zap.String("event", "password_reset"),
	)

	return &AuthResponse{User: ToUserResponse(user), Session: *session}, nil
}

func (s *Service) activeUserByEmail(ctx context.Context, email string) (*domainUser.User, error) {
	user, err := s.users.GetActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

package session

import (
	"context"
	"time"

	"movapp-backend/internal/logger"

	"go.uber.org/zap"
)

// StartTokenCleanupJob starts a background job to clean up expired tokens
func (s *Service) StartTokenCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Token cleanup job started",
		zap.Duration("interval", interval),
	)

	s.runCleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Token cleanup job stopped")
			return
		case <-ticker.C:
			s.runCleanup(ctx)
		}
	}
}

// CleanupExpiredTokens deletes expired refresh tokens and reset codes.
func (s *Service) CleanupExpiredTokens(ctx context.Context) (refreshDeleted, resetsDeleted int64, err error) {
	now := s.now()
	if refreshDeleted, err = s.refreshTokens.DeleteExpired(ctx, now); err != nil {
		return 0, 0, err
	}
	if resetsDeleted, err = s.resets.DeleteExpired(ctx, now); err != nil {
		return refreshDeleted, 0, err
	}
	return refreshDeleted, resetsDeleted, nil
}

func (s *Service) runCleanup(ctx context.Context) {
	refreshDeleted, resetsDeleted, err := s.CleanupExpiredTokens(ctx)
	if err != nil {
		logger.Error("Failed to delete expired tokens", zap.Error(err))
		return
	}

	logger.Debug("Expired tokens cleaned up successfully",
		zap.Int64("refresh_tokens", refreshDeleted),
		zap.Int64("reset_codes", resetsDeleted),
	)
}

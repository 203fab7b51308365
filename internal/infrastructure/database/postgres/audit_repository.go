package postgres

import (
	"context"
	"fmt"
	"time"

	domainAudit "movapp-backend/internal/domain/audit"
	"movapp-backend/internal/infrastructure/database/postgres/models"
)

var _ domainAudit.Repository = (*AuditRepository)(nil)

type AuditRepository struct {
	db *DB
}

func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, e *domainAudit.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	dbModel := &models.AuditLogModel{
		UserID:    e.UserID,
		DeviceID:  e.DeviceID,
		Action:    e.Action,
		Success:   e.Success,
		IP:        e.IP,
		UserAgent: e.UserAgent,
		CreatedAt: e.CreatedAt,
	}
	if err := r.db.conn(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	e.ID = dbModel.ID
	return nil
}

func (r *AuditRepository) ListByUser(ctx context.Context, userID uint64) ([]*domainAudit.Entry, error) {
	var dbModels []models.AuditLogModel
	err := r.db.conn(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	entries := make([]*domainAudit.Entry, 0, len(dbModels))
	for _, m := range dbModels {
		entries = append(entries, &domainAudit.Entry{
			ID:        m.ID,
			UserID:    m.UserID,
			DeviceID:  m.DeviceID,
			Action:    m.Action,
			Success:   m.Success,
			IP:        m.IP,
			UserAgent: m.UserAgent,
			CreatedAt: m.CreatedAt,
		})
	}
	return entries, nil
}

package database

import (
	"context"

	"insurance-dms/internal/models"
)

// RecordAudit пишет запись в журнал аудита.
func (s *Store) RecordAudit(ctx context.Context, entry *models.AuditLog) error {
	return translate(s.db.WithContext(ctx).Create(entry).Error)
}

// ListAuditLogs возвращает последние записи журнала, новые первыми. С
// пустым entity фильтр по объекту не применяется.
func (s *Store) ListAuditLogs(ctx context.Context, entity string, entityID uint, limit int) ([]models.AuditLog, error) {
	tx := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if entity != "" {
		tx = tx.Where("entity = ? AND entity_id = ?", entity, entityID)
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var logs []models.AuditLog
	if err := tx.Find(&logs).Error; err != nil {
		return nil, translate(err)
	}
	return logs, nil
}

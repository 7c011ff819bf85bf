package handlers

import (
	"context"
	"log/slog"

	"insurance-dms/internal/accounts"
	"insurance-dms/internal/auth"
	"insurance-dms/internal/claims"
	"insurance-dms/internal/models"
)

// AuditLister читает журнал аудита.
type AuditLister interface {
	ListAuditLogs(ctx context.Context, entity string, entityID uint, limit int) ([]models.AuditLog, error)
}

// Handler собирает зависимости всех HTTP-обработчиков.
type Handler struct {
	Accounts *accounts.Service
	Claims   *claims.Service
	Audit    AuditLister
	Auth     auth.Config
	Logger   *slog.Logger

	// MaxUploadBytes ограничивает один загружаемый файл.
	MaxUploadBytes int64
}

func New(accts *accounts.Service, cl *claims.Service, audit AuditLister, authCfg auth.Config, logger *slog.Logger, maxUploadBytes int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Accounts:       accts,
		Claims:         cl,
		Audit:          audit,
		Auth:           authCfg,
		Logger:         logger,
		MaxUploadBytes: maxUploadBytes,
	}
}

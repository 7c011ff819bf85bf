package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"insurance-dms/internal/models"
)

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// Open подключается к Postgres, повторяя попытки пока база поднимается.
func Open(ctx context.Context, dsn string, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= connectAttempts; i++ {
		log.InfoContext(ctx, "connecting to database", "attempt", i, "max_attempts", connectAttempts)

		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			log.InfoContext(ctx, "connected to database")
			return db, nil
		}
		log.WarnContext(ctx, "database connection failed", "attempt", i, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}
	return nil, fmt.Errorf("connect to database after %d attempts: %w", connectAttempts, err)
}

// Migrate приводит схему к текущим моделям.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Claim{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"insurance-dms/internal/accounts"
	"insurance-dms/internal/auth"
	"insurance-dms/internal/blob"
	"insurance-dms/internal/claims"
	"insurance-dms/internal/config"
	"insurance-dms/internal/database"
	"insurance-dms/internal/handlers"
	"insurance-dms/internal/metrics"
	"insurance-dms/internal/server"
	"insurance-dms/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Open(ctx, cfg.DBDSN, logger)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	store := database.NewStore(db)

	m := metrics.New()
	accts := accounts.NewService(store, logger, m)
	seedAdmin(ctx, accts, cfg.Admin, logger)

	blobs, err := newBlobStore(ctx, cfg.Blob, logger)
	if err != nil {
		return err
	}
	cl := claims.NewService(store, blobs, logger, m)

	authCfg := auth.Config{JWTSecret: cfg.JWTSecret, TokenTTL: cfg.JWTTTL}
	if !authCfg.Enabled() {
		logger.Warn("JWT_SECRET is not set, /api/v1 is disabled")
	}

	h := handlers.New(accts, cl, store, authCfg, logger, cfg.MaxUploadMB<<20)
	r := server.NewRouter(h, m, server.Options{
		SessionSecret: cfg.SessionSecret,
		SecureCookies: cfg.IsProduction(),
		TemplatesGlob: cfg.TemplatesGlob,
		StaticDir:     "./web/static",
	})

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	logger.Info("starting server", "addr", addr, "env", cfg.Env)
	return r.Run(addr)
}

// seedAdmin создаёт суперпользователя при первом запуске.
func seedAdmin(ctx context.Context, accts *accounts.Service, admin config.AdminConfig, logger *slog.Logger) {
	if admin.Password == "" {
		logger.Info("ADMIN_PASSWORD is not set, skipping superuser bootstrap")
		return
	}
	u, created, err := accts.EnsureSuperuser(ctx, accounts.CreateUserInput{
		UserForm: validation.UserForm{
			Email:    admin.Email,
			Username: admin.Username,
			FullName: admin.FullName,
		},
		Password: admin.Password,
	})
	if err != nil {
		logger.Error("failed to create superuser", "error", err)
		return
	}
	if created {
		logger.Info("created superuser", "email", u.Email)
	}
}

func newBlobStore(ctx context.Context, cfg config.BlobConfig, logger *slog.Logger) (blob.Store, error) {
	switch cfg.Backend {
	case "minio":
		s, err := blob.NewMinIOStore(blob.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
			Bucket:    cfg.Bucket,
			URLTTL:    cfg.URLTTL,
		})
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info("using minio blob store", "endpoint", cfg.MinIOEndpoint, "bucket", cfg.Bucket)
		return s, nil
	default:
		s, err := blob.NewS3Store(ctx, blob.S3Config{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.Bucket,
			Endpoint: cfg.AWSEndpoint,
			URLTTL:   cfg.URLTTL,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("using s3 blob store", "bucket", cfg.Bucket)
		return s, nil
	}
}

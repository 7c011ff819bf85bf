package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN         string
	ServerPort    string
	SessionSecret string
	Env           string

	JWTSecret string
	JWTTTL    time.Duration

	Blob BlobConfig

	Admin AdminConfig

	TemplatesGlob string
	MaxUploadMB   int64
}

type BlobConfig struct {
	Backend string // "s3" или "minio"
	Bucket  string
	URLTTL  time.Duration

	AWSRegion   string
	AWSEndpoint string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool
}

// AdminConfig описывает суперпользователя, которого создаём при первом
// запуске. Пустой Password отключает создание.
type AdminConfig struct {
	Email    string
	Username string
	FullName string
	Password string
}

func (c *Config) IsProduction() bool { return c.Env == "prod" || c.Env == "production" }

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBDSN:         os.Getenv("DB_DSN"),
		ServerPort:    getenv("SERVER_PORT", "8080"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		Env:           getenv("APP_ENV", "dev"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TemplatesGlob: getenv("TEMPLATES_GLOB", "web/templates/*.html"),
		Blob: BlobConfig{
			Backend:        getenv("BLOB_BACKEND", "s3"),
			Bucket:         os.Getenv("BLOB_BUCKET"),
			AWSRegion:      getenv("AWS_REGION", "us-east-1"),
			AWSEndpoint:    os.Getenv("AWS_ENDPOINT_URL"),
			MinIOEndpoint:  os.Getenv("MINIO_ENDPOINT"),
			MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		},
		Admin: AdminConfig{
			Email:    getenv("ADMIN_EMAIL", "admin@example.com"),
			Username: getenv("ADMIN_USERNAME", "admin"),
			FullName: getenv("ADMIN_FULL_NAME", "System Administrator"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}

	var err error
	if cfg.JWTTTL, err = durationEnv("JWT_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Blob.URLTTL, err = durationEnv("BLOB_URL_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Blob.MinIOUseSSL, err = boolEnv("MINIO_USE_SSL", false); err != nil {
		return nil, err
	}
	if cfg.MaxUploadMB, err = intEnv("MAX_UPLOAD_MB", 10); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN is not set"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is not set"))
	}
	if c.Blob.Bucket == "" {
		errs = append(errs, errors.New("BLOB_BUCKET is not set"))
	}
	switch c.Blob.Backend {
	case "s3":
	case "minio":
		if c.Blob.MinIOEndpoint == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT is not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("BLOB_BACKEND must be s3 or minio, got %q", c.Blob.Backend))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	return errors.Join(errs...)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func intEnv(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

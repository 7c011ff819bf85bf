package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"DB_DSN", "SERVER_PORT", "SESSION_SECRET", "APP_ENV", "JWT_SECRET", "JWT_TTL",
	"BLOB_BACKEND", "BLOB_BUCKET", "BLOB_URL_TTL", "AWS_REGION", "AWS_ENDPOINT_URL",
	"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_USE_SSL",
	"ADMIN_EMAIL", "ADMIN_USERNAME", "ADMIN_FULL_NAME", "ADMIN_PASSWORD",
	"TEMPLATES_GLOB", "MAX_UPLOAD_MB",
}

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, env[k])
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{
		"DB_DSN":         "postgres://localhost/dms",
		"SESSION_SECRET": "secret",
		"BLOB_BUCKET":    "claims",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "dev", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, "s3", cfg.Blob.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Blob.URLTTL)
	assert.Equal(t, int64(10), cfg.MaxUploadMB)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Empty(t, cfg.JWTSecret)
}

func TestLoadOverrides(t *testing.T) {
	setEnv(t, map[string]string{
		"DB_DSN":         "postgres://localhost/dms",
		"SESSION_SECRET": "secret",
		"BLOB_BUCKET":    "claims",
		"BLOB_BACKEND":   "minio",
		"MINIO_ENDPOINT": "localhost:9000",
		"MINIO_USE_SSL":  "true",
		"JWT_TTL":        "1h",
		"MAX_UPLOAD_MB":  "25",
		"APP_ENV":        "prod",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "minio", cfg.Blob.Backend)
	assert.True(t, cfg.Blob.MinIOUseSSL)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, int64(25), cfg.MaxUploadMB)
	assert.True(t, cfg.IsProduction())
}

func TestLoadMissingRequired(t *testing.T) {
	setEnv(t, map[string]string{})

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "DB_DSN is not set")
	assert.ErrorContains(t, err, "SESSION_SECRET is not set")
	assert.ErrorContains(t, err, "BLOB_BUCKET is not set")
}

func TestLoadInvalidValues(t *testing.T) {
	base := map[string]string{
		"DB_DSN":         "postgres://localhost/dms",
		"SESSION_SECRET": "secret",
		"BLOB_BUCKET":    "claims",
	}
	tests := map[string]map[string]string{
		"bad duration": {"JWT_TTL": "soon"},
		"bad backend":  {"BLOB_BACKEND": "ftp"},
		"minio no url": {"BLOB_BACKEND": "minio"},
		"bad bool":     {"MINIO_USE_SSL": "maybe"},
		"bad size":     {"MAX_UPLOAD_MB": "0"},
	}
	for name, extra := range tests {
		t.Run(name, func(t *testing.T) {
			env := map[string]string{}
			for k, v := range base {
				env[k] = v
			}
			for k, v := range extra {
				env[k] = v
			}
			setEnv(t, env)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

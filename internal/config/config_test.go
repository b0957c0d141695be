package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "Asia/Jakarta", cfg.App.Timezone)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.App.AllowedOrigins)
	assert.Equal(t, "http://localhost:8080/files", cfg.Storage.BaseURL)
	assert.Equal(t, 4, cfg.Reconcile.Workers)
	assert.Equal(t, time.Hour, cfg.Reconcile.Interval)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("IMPORT_WORKERS", "8")
	t.Setenv("RECONCILE_INTERVAL", "15m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://hr.example.com, https://admin.example.com")
	t.Setenv("DB_PASSWORD", "p@ss/word")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, 8, cfg.Reconcile.Workers)
	assert.Equal(t, 15*time.Minute, cfg.Reconcile.Interval)
	assert.Equal(t, []string{"https://hr.example.com", "https://admin.example.com"}, cfg.App.AllowedOrigins)
	assert.Contains(t, cfg.DatabaseURL(), "p%40ss%2Fword@localhost:5432")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing jwt secret", env: map[string]string{"JWT_SECRET_KEY": ""}},
		{name: "bad port", env: map[string]string{"DB_PORT": "postgres"}},
		{name: "bad interval", env: map[string]string{"RECONCILE_INTERVAL": "hourly"}},
		{name: "zero workers", env: map[string]string{"IMPORT_WORKERS": "0"}},
		{name: "unknown timezone", env: map[string]string{"APP_TIMEZONE": "Mars/Olympus"}},
		{name: "unsupported storage", env: map[string]string{"STORAGE_TYPE": "minio"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

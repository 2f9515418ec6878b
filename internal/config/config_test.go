package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/app")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, int64(20), cfg.MaxAttachmentMB)
	assert.Equal(t, int64(20<<20), cfg.MaxAttachmentBytes())
	assert.Equal(t, 10*time.Second, cfg.Payment.Timeout)
	assert.True(t, cfg.Payment.Sandbox())
	assert.Equal(t, 15*time.Minute, cfg.Escalation.SweepInterval)
	assert.Equal(t, 72*time.Hour, cfg.Escalation.WarningAfter)
	assert.Equal(t, 168*time.Hour, cfg.Escalation.EscalateAfter)
	assert.Equal(t, 336*time.Hour, cfg.Escalation.FinishAfter)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEmpty(t, cfg.Payment.CallbackSecret)
	assert.Equal(t, "postgres://u:p@db:5432/app", cfg.DatabaseURL)
}

func TestFromEnv_DatabaseURLFromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "db")
	t.Setenv("POSTGRESQL_USER", "app")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss")
	t.Setenv("POSTGRESQL_DBNAME", "hiring")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:p%40ss@db:5432/hiring?sslmode=disable", cfg.DatabaseURL)
}

func TestFromEnv_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")
	t.Setenv("JWT_SECRET", "short")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("PAYMENT_BASE_URL", "https://pay.example.com")
	t.Setenv("PAYMENT_CALLBACK_SECRET", "")
	_, err = FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_CALLBACK_SECRET")

	t.Setenv("PAYMENT_CALLBACK_SECRET", strings.Repeat("c", 32))
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.AllowedOrigins)
}

func TestFromEnv_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "драйвер", key: "STORAGE_DRIVER", val: "sqlite"},
		{name: "длительность", key: "PAYMENT_TIMEOUT", val: "ten"},
		{name: "размер", key: "MAX_ATTACHMENT_MB", val: "0"},
		{name: "порядок порогов", key: "ESCALATION_WARNING_AFTER", val: "400h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "development")
			t.Setenv(tt.key, tt.val)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_TrimsOrigins(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com , ,https://b.example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

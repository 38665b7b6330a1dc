package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.True(t, cfg.StrictTeacherCalendar)
	assert.Equal(t, 4, cfg.SlotWeeksAhead)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
	assert.Empty(t, cfg.TrustedProxies())
	assert.Empty(t, cfg.PaymentCallbackSecret)
	assert.False(t, cfg.IsProduction())
}

func TestFromViper_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/tutor")
	t.Setenv("ENV", "production")
	t.Setenv("STRICT_TEACHER_CALENDAR", "false")
	t.Setenv("SLOT_WEEKS_AHEAD", "6")
	t.Setenv("TIMEZONE", "Europe/Moscow")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 10.0.0.0/8")
	t.Setenv("PAYMENT_CALLBACK_SECRET", "whsec")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, "postgres://localhost/tutor", cfg.GetDBDSN())
	assert.False(t, cfg.StrictTeacherCalendar)
	assert.Equal(t, 6, cfg.SlotWeeksAhead)
	assert.Equal(t, "Europe/Moscow", cfg.Location().String())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.0/8"}, cfg.TrustedProxies())
	assert.Equal(t, "whsec", cfg.PaymentCallbackSecret)
	assert.True(t, cfg.IsProduction())
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"postgres without dsn", map[string]string{}, "DB_DSN is required"},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mongo"}, "unknown STORAGE_DRIVER"},
		{"bad timezone", map[string]string{"STORAGE_DRIVER": "memory", "TIMEZONE": "Mars/Base"}, "invalid TIMEZONE"},
		{"zero weeks", map[string]string{"STORAGE_DRIVER": "memory", "SLOT_WEEKS_AHEAD": "0"}, "SLOT_WEEKS_AHEAD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_DSN", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromViper(newViper())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

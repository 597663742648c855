package config_test

import (
	"testing"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MemoryDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, config.StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "B02", cfg.DefaultFiscalType)
	assert.Equal(t, int64(10), cfg.FiscalLowCapacityThreshold)
	assert.Equal(t, 10, cfg.GracePeriodBusinessDays)
	assert.NotEmpty(t, cfg.JWTSecret)

	wf := cfg.Workflow()
	assert.Equal(t, cfg.ComplaintFeeItemCode, wf.ComplaintFeeItemCode)
	assert.Equal(t, time.UTC, wf.Location)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("GRACE_PERIOD_BUSINESS_DAYS", "15")
	t.Setenv("HOLIDAYS", "2026-11-06,2026-12-25")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.GracePeriodBusinessDays)
	assert.False(t, cfg.Holidays.IsBusinessDay(time.Date(2026, time.November, 6, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without url", map[string]string{"STORAGE_DRIVER": "postgres", "PGSQL_URL": ""}},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "sqlite"}},
		{"bad holiday", map[string]string{"STORAGE_DRIVER": "memory", "HOLIDAYS": "25/12/2026"}},
		{"bad timezone", map[string]string{"STORAGE_DRIVER": "memory", "TIMEZONE": "Mars/Olympus"}},
		{"production without secret", map[string]string{"STORAGE_DRIVER": "memory", "IS_PRODUCTION": "true", "JWT_SECRET": ""}},
		{"non positive grace period", map[string]string{"STORAGE_DRIVER": "memory", "GRACE_PERIOD_BUSINESS_DAYS": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.LoadConfig()
			assert.Error(t, err)
		})
	}
}

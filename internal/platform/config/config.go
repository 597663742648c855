package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	StorageDriver  string
	MigrationsPath string

	JWTSecret string
	JWTIssuer string

	RedisURL           string
	RateLimit          string // ulule formatted rate, e.g. 100-M
	CORSAllowedOrigins []string

	DefaultFiscalType          string
	FiscalLowCapacityThreshold int64
	GracePeriodBusinessDays    int
	Holidays                   domain.HolidayCalendar
	ComplaintFeeItemCode       string
	IRCNewFeeItemCode          string
	IRCRenewalFeeItemCode      string
	Location                   *time.Location
}

// WorkflowConfig is the slice of configuration the workflow services depend on.
type WorkflowConfig struct {
	DefaultFiscalType          string
	FiscalLowCapacityThreshold int64
	GracePeriodBusinessDays    int
	Holidays                   domain.HolidayCalendar
	ComplaintFeeItemCode       string
	IRCNewFeeItemCode          string
	IRCRenewalFeeItemCode      string
	Location                   *time.Location
}

// DefaultWorkflowConfig returns the settings used when nothing is configured.
func DefaultWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		DefaultFiscalType:          "B02",
		FiscalLowCapacityThreshold: 10,
		GracePeriodBusinessDays:    10,
		Holidays:                   domain.NewHolidayCalendar(),
		ComplaintFeeItemCode:       "DEN-TASA",
		IRCNewFeeItemCode:          "IRC-NUEVO",
		IRCRenewalFeeItemCode:      "IRC-RENOVACION",
		Location:                   time.UTC,
	}
}

// Workflow exposes the workflow settings.
func (c *Config) Workflow() WorkflowConfig {
	return WorkflowConfig{
		DefaultFiscalType:          c.DefaultFiscalType,
		FiscalLowCapacityThreshold: c.FiscalLowCapacityThreshold,
		GracePeriodBusinessDays:    c.GracePeriodBusinessDays,
		Holidays:                   c.Holidays,
		ComplaintFeeItemCode:       c.ComplaintFeeItemCode,
		IRCNewFeeItemCode:          c.IRCNewFeeItemCode,
		IRCRenewalFeeItemCode:      c.IRCRenewalFeeItemCode,
		Location:                   c.Location,
	}
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	defaults := DefaultWorkflowConfig()
	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "onda-backoffice")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("DEFAULT_FISCAL_TYPE", defaults.DefaultFiscalType)
	v.SetDefault("FISCAL_LOW_CAPACITY_THRESHOLD", defaults.FiscalLowCapacityThreshold)
	v.SetDefault("GRACE_PERIOD_BUSINESS_DAYS", defaults.GracePeriodBusinessDays)
	v.SetDefault("HOLIDAYS", "")
	v.SetDefault("COMPLAINT_FEE_ITEM_CODE", defaults.ComplaintFeeItemCode)
	v.SetDefault("IRC_NEW_FEE_ITEM_CODE", defaults.IRCNewFeeItemCode)
	v.SetDefault("IRC_RENEWAL_FEE_ITEM_CODE", defaults.IRCRenewalFeeItemCode)
	v.SetDefault("TIMEZONE", "America/Santo_Domingo")

	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:                v.GetString("PGSQL_URL"),
		Port:                       v.GetString("PORT"),
		IsProduction:               v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:              v.GetBool("ENABLE_DB_CHECK"),
		StorageDriver:              strings.ToLower(v.GetString("STORAGE_DRIVER")),
		MigrationsPath:             v.GetString("MIGRATIONS_PATH"),
		JWTSecret:                  v.GetString("JWT_SECRET"),
		JWTIssuer:                  v.GetString("JWT_ISSUER"),
		RedisURL:                   v.GetString("REDIS_URL"),
		RateLimit:                  v.GetString("RATE_LIMIT"),
		CORSAllowedOrigins:         splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		DefaultFiscalType:          v.GetString("DEFAULT_FISCAL_TYPE"),
		FiscalLowCapacityThreshold: v.GetInt64("FISCAL_LOW_CAPACITY_THRESHOLD"),
		GracePeriodBusinessDays:    v.GetInt("GRACE_PERIOD_BUSINESS_DAYS"),
		ComplaintFeeItemCode:       v.GetString("COMPLAINT_FEE_ITEM_CODE"),
		IRCNewFeeItemCode:          v.GetString("IRC_NEW_FEE_ITEM_CODE"),
		IRCRenewalFeeItemCode:      v.GetString("IRC_RENEWAL_FEE_ITEM_CODE"),
	}

	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when STORAGE_DRIVER=%s", StorageDriverPostgres)
		}
	case StorageDriverMemory:
		slog.Warn("Using in-memory storage; data is lost on restart")
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		slog.Warn("JWT_SECRET not set; using an insecure development secret")
		cfg.JWTSecret = "insecure-development-secret-change-me"
	}

	if cfg.GracePeriodBusinessDays < 1 {
		return nil, fmt.Errorf("GRACE_PERIOD_BUSINESS_DAYS must be positive, got %d", cfg.GracePeriodBusinessDays)
	}
	if cfg.FiscalLowCapacityThreshold < 0 {
		return nil, fmt.Errorf("FISCAL_LOW_CAPACITY_THRESHOLD cannot be negative")
	}

	holidays, err := domain.ParseHolidayCalendar(v.GetString("HOLIDAYS"))
	if err != nil {
		return nil, fmt.Errorf("invalid HOLIDAYS: %w", err)
	}
	cfg.Holidays = holidays

	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

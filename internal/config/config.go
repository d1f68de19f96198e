package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mamadbah2/meatdesk/internal/service/pricing"
	"github.com/mamadbah2/meatdesk/internal/service/triggers"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	AI        AIConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Insights  InsightsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig selects the minimum log level.
type LogConfig struct {
	Level string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	BaseURL       string
	APIVersion    string
	// ManagerID receives briefings and pushed alerts.
	ManagerID string
	// SendRate caps outbound messages per second.
	SendRate float64
}

// SheetsConfig contains configuration required to publish the price catalog.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	PriceRange      string
}

// Enabled reports whether price publication can run.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	BriefingSchedule   string
	AlertSweepSchedule string
	PriceSchedule      string
	Timezone           string
}

// Location resolves the configured timezone, falling back to UTC.
func (r ReportingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AIConfig holds settings for LLM providers.
type AIConfig struct {
	AnthropicKey string
	Model        string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// RedisConfig holds settings for the alert dedup store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// InsightsConfig carries the business thresholds operators tune per site.
type InsightsConfig struct {
	CashEmergencyFloor       float64
	DefaultBatchCostBaseline float64
	DefaultReferencePrice    float64
	HighValueCreditLimit     float64
}

// Triggers returns the trigger rule configuration with these thresholds applied.
func (i InsightsConfig) Triggers() triggers.Config {
	cfg := triggers.DefaultConfig()
	cfg.CashEmergencyFloor = i.CashEmergencyFloor
	cfg.DefaultBatchCostBaseline = i.DefaultBatchCostBaseline
	cfg.HighValueCreditLimit = i.HighValueCreditLimit
	return cfg
}

// Pricing returns the pricing configuration with these thresholds applied.
func (i InsightsConfig) Pricing() pricing.Config {
	cfg := pricing.DefaultConfig()
	cfg.DefaultRefPrice = i.DefaultReferencePrice
	return cfg
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// missing .env files are fine when configuration comes from the environment
		_ = godotenv.Load()
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv builds a Config from the current process environment without validating it.
func FromEnv() (*Config, error) {
	defaults := triggers.DefaultConfig()

	sendRate, err := getenvFloat("WHATSAPP_SEND_RATE", 5)
	if err != nil {
		return nil, err
	}
	redisDB, err := getenvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	floor, err := getenvFloat("CASH_EMERGENCY_FLOOR", defaults.CashEmergencyFloor)
	if err != nil {
		return nil, err
	}
	baseline, err := getenvFloat("DEFAULT_BATCH_COST_BASELINE", defaults.DefaultBatchCostBaseline)
	if err != nil {
		return nil, err
	}
	refPrice, err := getenvFloat("DEFAULT_REFERENCE_PRICE", pricing.DefaultConfig().DefaultRefPrice)
	if err != nil {
		return nil, err
	}
	highValue, err := getenvFloat("HIGH_VALUE_CREDIT_LIMIT", defaults.HighValueCreditLimit)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			ManagerID:     os.Getenv("WHATSAPP_MANAGER_ID"),
			SendRate:      sendRate,
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_PRICES_ID"),
			PriceRange:      getenvWithDefault("GOOGLE_SHEET_PRICE_RANGE", "Precos!A1"),
		},
		Reporting: ReportingConfig{
			BriefingSchedule:   getenvWithDefault("BRIEFING_CRON_SCHEDULE", "0 7 * * *"),
			AlertSweepSchedule: getenvWithDefault("ALERT_SWEEP_CRON_SCHEDULE", "*/30 * * * *"),
			PriceSchedule:      getenvWithDefault("PRICE_CRON_SCHEDULE", "0 6 * * *"),
			Timezone:           getenvWithDefault("TIMEZONE", "America/Sao_Paulo"),
		},
		AI: AIConfig{
			AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
			Model:        getenvWithDefault("ANTHROPIC_MODEL", "claude-3-haiku-20240307"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "meatdesk"),
		},
		Redis: RedisConfig{
			Addr:     getenvWithDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Insights: InsightsConfig{
			CashEmergencyFloor:       floor,
			DefaultBatchCostBaseline: baseline,
			DefaultReferencePrice:    refPrice,
			HighValueCreditLimit:     highValue,
		},
	}, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.WhatsApp.AccessToken == "":
		return errors.New("WHATSAPP_TOKEN must be provided")
	case c.WhatsApp.PhoneNumberID == "":
		return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
	case c.WhatsApp.VerifyToken == "":
		return errors.New("META_VERIFY_TOKEN must be provided")
	case c.WhatsApp.ManagerID == "":
		return errors.New("WHATSAPP_MANAGER_ID must be provided")
	}

	if c.WhatsApp.BaseURL == "" {
		return errors.New("WHATSAPP_BASE_URL must not be empty")
	}

	if c.WhatsApp.APIVersion == "" {
		return errors.New("WHATSAPP_API_VERSION must not be empty")
	}

	if c.WhatsApp.SendRate <= 0 {
		return errors.New("WHATSAPP_SEND_RATE must be positive")
	}

	if c.MongoDB.URI == "" || c.MongoDB.DBName == "" {
		return errors.New("MONGODB_URI and MONGODB_DB_NAME must be provided")
	}

	if c.Redis.Addr == "" {
		return errors.New("REDIS_ADDR must be provided")
	}

	if c.Reporting.BriefingSchedule == "" || c.Reporting.AlertSweepSchedule == "" || c.Reporting.PriceSchedule == "" {
		return errors.New("cron schedules must not be empty")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Reporting.Timezone, err)
	}

	if c.Insights.CashEmergencyFloor < 0 || c.Insights.DefaultBatchCostBaseline < 0 {
		return errors.New("cash thresholds must not be negative")
	}

	if c.Insights.DefaultReferencePrice <= 0 {
		return errors.New("DEFAULT_REFERENCE_PRICE must be positive")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return v, nil
}

func getenvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	MongoDB   MongoDBConfig
	Alerts    AlertsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port        string
	MaxUploadMB int64
	LogLevel    string
}

// SheetsConfig contains configuration required to read inventory from Google Sheets.
// The integration is disabled when both credentials and spreadsheet ID are empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	InventoryRange  string
	HistoryRange    string
}

// Enabled reports whether a spreadsheet source is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// ReportingConfig holds metric thresholds and scheduler settings.
type ReportingConfig struct {
	LowStockThreshold float64
	TopTurnoverLimit  int
	PreviewRows       int
	CronSchedule      string
	Timezone          string
}

// MongoDBConfig holds settings for the report archive. An empty URI disables it.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// AlertsConfig holds the outbound webhook used for stock alerts.
type AlertsConfig struct {
	WebhookURL string
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
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	maxUpload, err := getenvInt("MAX_UPLOAD_MB", 10)
	if err != nil {
		return nil, err
	}
	threshold, err := getenvFloat("LOW_STOCK_THRESHOLD", 5)
	if err != nil {
		return nil, err
	}
	topLimit, err := getenvInt("TOP_TURNOVER_LIMIT", 5)
	if err != nil {
		return nil, err
	}
	previewRows, err := getenvInt("PREVIEW_ROWS", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getenvWithDefault("APP_PORT", "8080"),
			MaxUploadMB: int64(maxUpload),
			LogLevel:    getenvWithDefault("LOG_LEVEL", "info"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			InventoryRange:  getenvWithDefault("GOOGLE_SHEET_INVENTORY_RANGE", "Inventory!A:F"),
			HistoryRange:    os.Getenv("GOOGLE_SHEET_HISTORY_RANGE"),
		},
		Reporting: ReportingConfig{
			LowStockThreshold: threshold,
			TopTurnoverLimit:  topLimit,
			PreviewRows:       previewRows,
			CronSchedule:      getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:          getenvWithDefault("TIMEZONE", "UTC"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "stocktrend"),
		},
		Alerts: AlertsConfig{
			WebhookURL: os.Getenv("ALERT_WEBHOOK_URL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Server.MaxUploadMB <= 0 {
		return errors.New("MAX_UPLOAD_MB must be positive")
	}

	switch {
	case c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID == "":
		return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided with GOOGLE_SHEETS_CREDENTIALS_PATH")
	case c.Sheets.SpreadsheetID != "" && c.Sheets.CredentialsPath == "":
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided with GOOGLE_SHEET_DATABASE_ID")
	}

	if c.Sheets.Enabled() && c.Sheets.InventoryRange == "" {
		return errors.New("GOOGLE_SHEET_INVENTORY_RANGE must not be empty")
	}

	if c.Reporting.TopTurnoverLimit <= 0 {
		return errors.New("TOP_TURNOVER_LIMIT must be positive")
	}

	if c.Reporting.PreviewRows < 0 {
		return errors.New("PREVIEW_ROWS must not be negative")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided with MONGODB_URI")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

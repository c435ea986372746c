// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/aristath/fofliquidity/internal/modules/liquidity"
	"github.com/aristath/fofliquidity/internal/utils"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Directory holding the funds database (always absolute)
	LogLevel        string
	Port            int
	DevMode         bool
	CurrencySymbol  string
	AllowedOrigins  []string
	MonitorSchedule string
	Policy          liquidity.Policy
	Backup          *BackupConfig
}

// BackupConfig holds the S3/R2 backup settings. Backups are disabled when
// Bucket is empty.
type BackupConfig struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Retention       int
	Schedule        string
}

// Enabled reports whether a backup bucket is configured
func (b *BackupConfig) Enabled() bool {
	return b != nil && b.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("FOF_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("GO_PORT", 8001),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CurrencySymbol:  getEnv("FOF_CURRENCY_SYMBOL", "R$"),
		AllowedOrigins:  utils.ParseCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		MonitorSchedule: getEnv("FOF_MONITOR_SCHEDULE", "0 0 7 * * MON-FRI"),
		Policy:          loadPolicy(),
		Backup:          loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the port, the policy defaults and the schedules
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy defaults: %w", err)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.MonitorSchedule); err != nil {
		return fmt.Errorf("invalid FOF_MONITOR_SCHEDULE: %w", err)
	}
	if c.Backup.Enabled() {
		if _, err := parser.Parse(c.Backup.Schedule); err != nil {
			return fmt.Errorf("invalid BACKUP_SCHEDULE: %w", err)
		}
		if c.Backup.Retention < 0 {
			return fmt.Errorf("BACKUP_RETENTION must not be negative")
		}
	}

	return nil
}

// DefaultPolicy returns the configured analysis policy
func (c *Config) DefaultPolicy() liquidity.Policy {
	return c.Policy
}

// DatabasePath returns the location of the funds database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "funds.db")
}

func loadPolicy() liquidity.Policy {
	p := liquidity.DefaultPolicy()
	p.TargetHorizon = getEnvAsInt("FOF_TARGET_HORIZON", p.TargetHorizon)
	p.Method = getEnv("FOF_DEMAND_METHOD", p.Method)
	p.LookbackMonths = getEnvAsInt("FOF_LOOKBACK_MONTHS", p.LookbackMonths)
	p.LookbackDays = getEnvAsInt("FOF_LOOKBACK_DAYS", p.LookbackDays)
	p.SoftLimit = getEnvAsFloat("FOF_SOFT_LIMIT", p.SoftLimit)
	p.MismatchThreshold = getEnvAsFloat("FOF_MISMATCH_THRESHOLD", p.MismatchThreshold)
	p.RequireTimestamps = getEnvAsBool("FOF_REQUIRE_TIMESTAMPS", p.RequireTimestamps)
	return p
}

func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Bucket:          getEnv("BACKUP_BUCKET", ""),
		Prefix:          getEnv("BACKUP_PREFIX", "fofliquidity"),
		Region:          getEnv("BACKUP_REGION", "auto"),
		Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
		AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
		Retention:       getEnvAsInt("BACKUP_RETENTION", 7),
		Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 2 * * *"),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

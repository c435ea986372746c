package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fofliquidity/internal/modules/liquidity"
)

func TestLoad_Defaults(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	t.Setenv("FOF_DATA_DIR", dataDir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.DirExists(t, dataDir)
	assert.Equal(t, filepath.Join(dataDir, "funds.db"), cfg.DatabasePath())
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "R$", cfg.CurrencySymbol)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, liquidity.DefaultPolicy(), cfg.DefaultPolicy())
	assert.False(t, cfg.Backup.Enabled())
	assert.Equal(t, 7, cfg.Backup.Retention)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("FOF_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "9100")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("FOF_TARGET_HORIZON", "30")
	t.Setenv("FOF_DEMAND_METHOD", "empirical")
	t.Setenv("FOF_LOOKBACK_DAYS", "250")
	t.Setenv("FOF_SOFT_LIMIT", "1.5")
	t.Setenv("FOF_REQUIRE_TIMESTAMPS", "false")
	t.Setenv("BACKUP_BUCKET", "fof-backups")
	t.Setenv("BACKUP_RETENTION", "14")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 30, cfg.Policy.TargetHorizon)
	assert.Equal(t, liquidity.MethodEmpirical, cfg.Policy.Method)
	assert.Equal(t, 250, cfg.Policy.LookbackDays)
	assert.Equal(t, 1.5, cfg.Policy.SoftLimit)
	assert.False(t, cfg.Policy.RequireTimestamps)
	assert.True(t, cfg.Backup.Enabled())
	assert.Equal(t, "fof-backups", cfg.Backup.Bucket)
	assert.Equal(t, 14, cfg.Backup.Retention)
}

func TestLoad_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("FOF_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "eighty")
	t.Setenv("FOF_SOFT_LIMIT", "high")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, 1.3, cfg.Policy.SoftLimit)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:            8001,
			MonitorSchedule: "0 0 7 * * MON-FRI",
			Policy:          liquidity.DefaultPolicy(),
			Backup:          &BackupConfig{Bucket: "b", Schedule: "0 0 2 * * *", Retention: 7},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "port out of range", mutate: func(c *Config) { c.Port = 70000 }},
		{name: "soft limit below hard limit", mutate: func(c *Config) { c.Policy.SoftLimit = 0.9 }},
		{name: "unknown method", mutate: func(c *Config) { c.Policy.Method = "garch" }},
		{name: "bad monitor schedule", mutate: func(c *Config) { c.MonitorSchedule = "every morning" }},
		{name: "bad backup schedule", mutate: func(c *Config) { c.Backup.Schedule = "nightly" }},
		{name: "negative retention", mutate: func(c *Config) { c.Backup.Retention = -1 }},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_IgnoresBackupScheduleWhenDisabled(t *testing.T) {
	cfg := &Config{
		Port:            8001,
		MonitorSchedule: "@daily",
		Policy:          liquidity.DefaultPolicy(),
		Backup:          &BackupConfig{Schedule: "nightly"},
	}
	assert.NoError(t, cfg.Validate())
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9090
authentication:
  paseto:
    mode: local
scheduler:
  store: memory
  max_slots_per_day: 3
  orphan_sweep_cron: "0 3 * * *"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigName+"."+ConfigFormat), []byte(body), 0o600))
	return dir
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, StoreMemory, cfg.Scheduler.Store)
	assert.Equal(t, 3, cfg.Scheduler.MaxSlotsPerDay)
	assert.Equal(t, 52, cfg.Scheduler.WeekCacheSize)
	assert.Equal(t, 12, cfg.Scheduler.FeedWeeks)
	assert.Equal(t, "/metrics", cfg.Observability.Metrics.Path)
}

func TestReadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SIMORQ_SCHEDULER_MAX_SLOTS_PER_DAY", "5")

	cfg, err := ReadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Scheduler.MaxSlotsPerDay)
}

func TestReadConfig_MissingFile(t *testing.T) {
	_, err := ReadConfig(t.TempDir())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		c := Config{}
		c.Scheduler.Store = StoreMemory
		c.Authentication.Paseto.Mode = "local"
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown store", func(c *Config) { c.Scheduler.Store = "mongo" }, "unknown driver"},
		{"postgres without host", func(c *Config) { c.Scheduler.Store = StorePostgres }, "database.host"},
		{"bad cron", func(c *Config) { c.Scheduler.OrphanSweepCron = "every day" }, "orphan_sweep_cron"},
		{"negative cap", func(c *Config) { c.Scheduler.MaxSlotsPerDay = -1 }, "max_slots_per_day"},
		{"feed too long", func(c *Config) { c.Scheduler.FeedWeeks = 500 }, "feed_weeks"},
		{"no paseto mode", func(c *Config) { c.Authentication.Paseto.Mode = "" }, "paseto.mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

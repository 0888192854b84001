package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

type Config struct {
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Server         ServerConfig         `mapstructure:"server"`
	Authentication AuthenticationConfig `mapstructure:"authentication"`
	Observability  ObservabilityConfig  `mapstructure:"observability"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Nats           NatsConfig           `mapstructure:"nats"`
	Scheduler      SchedulerConfig      `mapstructure:"scheduler"`
}

type NatsConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

type DatabaseConfig struct {
	Host       string                  `mapstructure:"host"`
	Port       int                     `mapstructure:"port"`
	User       string                  `mapstructure:"user"`
	Password   string                  `mapstructure:"password"`
	DBName     string                  `mapstructure:"dbname"`
	SSLMode    string                  `mapstructure:"sslmode"`
	Pool       DatabasePoolConfig      `mapstructure:"pool"`
	Migrations DatabaseMigrationConfig `mapstructure:"migrations"`
}

type DatabasePoolConfig struct {
	MaxOpenConns       int `mapstructure:"max_open_conns"`
	MaxIdleConns       int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int `mapstructure:"conn_max_lifetime_minutes"`
}

type DatabaseMigrationConfig struct {
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type ServerConfig struct {
	Port              int        `mapstructure:"port"`
	TimeoutSeconds    int        `mapstructure:"timeout_seconds"`
	Environment       string     `mapstructure:"environment"`
	RequestsPerMinute int        `mapstructure:"requests_per_minute"`
	CORS              CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	ExposeHeaders    []string `mapstructure:"expose_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAgeSeconds    int      `mapstructure:"max_age_seconds"`
}

type AuthenticationConfig struct {
	Paseto            PasetoConfig `mapstructure:"paseto"`
	SessionTTLMinutes int          `mapstructure:"session_ttl_minutes"`
	// RequireSession makes the auth middleware reject tokens whose session
	// key is missing from Redis.
	RequireSession bool `mapstructure:"require_session"`
}

type PasetoConfig struct {
	Mode             string `mapstructure:"mode"`
	LocalKeyHex      string `mapstructure:"local_key_hex"`
	SecretKeyHex     string `mapstructure:"secret_key_hex"`
	PublicKeyHex     string `mapstructure:"public_key_hex"`
	Issuer           string `mapstructure:"issuer"`
	Audience         string `mapstructure:"audience"`
	AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level"`  // debug, info, warn, error
	Format string       `mapstructure:"format"` // text, json
	Output OutputConfig `mapstructure:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout"`
	File   FileLogConfig `mapstructure:"file"`
	Loki   LokiConfig    `mapstructure:"loki"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`        // e.g. "logs/scheduler.log"
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // rotate after N MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type LokiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // e.g. "http://localhost:3100"
	Username string `mapstructure:"username"` // for Grafana Cloud basic auth
	Password string `mapstructure:"password"`
}

// Store drivers accepted by scheduler.store.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type SchedulerConfig struct {
	Store             string `mapstructure:"store"` // postgres, memory
	MaxSlotsPerDay    int    `mapstructure:"max_slots_per_day"`
	WeekCacheSize     int    `mapstructure:"week_cache_size"`
	PagerRegistrySize int    `mapstructure:"pager_registry_size"`
	OrphanSweepCron   string `mapstructure:"orphan_sweep_cron"` // empty disables the sweep
	FeedWeeks         int    `mapstructure:"feed_weeks"`
}

// ApplyDefaults fills zero values with the scheduler's defaults.
func (c *Config) ApplyDefaults() {
	s := &c.Scheduler
	if s.Store == "" {
		s.Store = StorePostgres
	}
	if s.MaxSlotsPerDay == 0 {
		s.MaxSlotsPerDay = 2
	}
	if s.WeekCacheSize == 0 {
		s.WeekCacheSize = 52
	}
	if s.PagerRegistrySize == 0 {
		s.PagerRegistrySize = 1024
	}
	if s.FeedWeeks == 0 {
		s.FeedWeeks = 12
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
}

func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Scheduler.Store) {
	case StorePostgres:
		if c.Database.Host == "" {
			errs = append(errs, errors.New("database.host is required for the postgres store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("scheduler.store: unknown driver %q", c.Scheduler.Store))
	}

	if c.Scheduler.MaxSlotsPerDay < 0 {
		errs = append(errs, errors.New("scheduler.max_slots_per_day must not be negative"))
	}
	if c.Scheduler.WeekCacheSize < 0 || c.Scheduler.PagerRegistrySize < 0 {
		errs = append(errs, errors.New("scheduler cache sizes must not be negative"))
	}
	if c.Scheduler.FeedWeeks < 0 || c.Scheduler.FeedWeeks > 104 {
		errs = append(errs, errors.New("scheduler.feed_weeks must be between 0 and 104"))
	}
	if spec := c.Scheduler.OrphanSweepCron; spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			errs = append(errs, fmt.Errorf("scheduler.orphan_sweep_cron: %w", err))
		}
	}
	if c.Authentication.Paseto.Mode == "" {
		errs = append(errs, errors.New("authentication.paseto.mode is required"))
	}

	return errors.Join(errs...)
}

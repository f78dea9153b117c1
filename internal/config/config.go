// Package config loads application configuration from defaults, an optional
// yaml file and environment overrides.
package config

import (
	"fmt"
	"time"
)

// Config is the application configuration root.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Rollup        RollupConfig        `mapstructure:"rollup"`
	Sweep         SweepConfig         `mapstructure:"sweep"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Bootstrap     BootstrapConfig     `mapstructure:"bootstrap"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN renders the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}

type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

type RollupConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type SweepConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	Concurrency int           `mapstructure:"concurrency"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type TracingConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	ExporterEndpoint string  `mapstructure:"exporter_endpoint"`
	ExporterProtocol string  `mapstructure:"exporter_protocol"`
	SamplingRatio    float64 `mapstructure:"sampling_ratio"`
}

type BootstrapConfig struct {
	EnsureDefaultTenant bool `mapstructure:"ensure_default_tenant"`
}

// IsProduction reports whether the app runs in the production environment.
func (c Config) IsProduction() bool {
	return c.App.Environment == "production"
}

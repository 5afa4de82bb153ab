// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
// Nested sections read prefixed variables (SERVER_PORT, DB_HOST, ...) and fall back to
// the unprefixed name when one is given in the tag (PORT, DEV, SESSION_SECRET).
type Config struct {
	Server   ServerConfig   `envconfig:"SERVER"`
	Database DatabaseConfig `envconfig:"DB"`
	App      AppConfig      `envconfig:"APP"`
	Invoice  InvoiceConfig  `envconfig:"INVOICE"`
	Export   ExportConfig   `envconfig:"EXPORT"`
	Log      LogConfig      `envconfig:"LOG"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `split_words:"true" default:"15s"`
	WriteTimeout    time.Duration `split_words:"true" default:"15s"`
	IdleTimeout     time.Duration `split_words:"true" default:"60s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

// DatabaseConfig holds connection settings. Driver is "postgres" or "sqlite".
// Generic names (HOST, USER, PORT) carry no tag so they are only read with the DB_ prefix.
type DatabaseConfig struct {
	Driver         string        `default:"postgres"`
	Host           string        `default:"localhost"`
	Port           int           `default:"5432"`
	User           string        `default:"invoices"`
	Password       string        `default:"invoices123"`
	Name           string        `default:"invoices"`
	SSLMode        string        `default:"disable"`
	File           string        `default:"invoices.db"` // sqlite only
	Debug          bool
	ConnectTimeout time.Duration `split_words:"true" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev           bool          `envconfig:"DEV" default:"true"`
	Migrations    bool          `envconfig:"MIGRATIONS"`
	SessionSecret string        `envconfig:"SESSION_SECRET" default:"devsessionsecret"`
	EditorTTL     time.Duration `split_words:"true" default:"30m"`
}

// InvoiceConfig holds the defaults applied to newly created invoices.
type InvoiceConfig struct {
	DefaultVATActive bool    `envconfig:"DEFAULT_VAT_ACTIVE"`
	DefaultVATRate   float64 `envconfig:"DEFAULT_VAT_RATE" default:"18"`
	DueDays          int     `envconfig:"DUE_DAYS" default:"30"`
}

// ExportConfig holds PDF export settings.
type ExportConfig struct {
	Dir string `default:"exports"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level    string `default:"info"`
	FilePath string `split_words:"true"`
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the application cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Invoice.DueDays < 0 {
		return fmt.Errorf("config: INVOICE_DUE_DAYS must not be negative")
	}
	if c.Export.Dir == "" {
		return fmt.Errorf("config: EXPORT_DIR is required")
	}
	return nil
}

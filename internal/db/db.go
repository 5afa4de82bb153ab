// Package db opens the GORM connection and prepares the schema.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/invoice-desk/internal/config"
)

// Connect opens the configured database and pings it, retrying with
// exponential backoff until cfg.ConnectTimeout elapses. Postgres is often
// still starting when the server comes up.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var conn *gorm.DB
	open := func() error {
		dialector, err := dialectorFor(cfg)
		if err != nil {
			return backoff.Permanent(err)
		}
		c, err := gorm.Open(dialector, gormCfg)
		if err != nil {
			return err
		}
		if err := Ping(ctx, c); err != nil {
			if sqlDB, dbErr := c.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
			return err
		}
		conn = c
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = cfg.ConnectTimeout

	notify := func(err error, next time.Duration) {
		log.Warn().Err(err).Dur("retry_in", next).Msg("database not ready")
	}
	if err := backoff.RetryNotify(open, backoff.WithContext(bo, ctx), notify); err != nil {
		return nil, fmt.Errorf("connect %s database: %w", cfg.Driver, err)
	}
	log.Info().Str("driver", cfg.Driver).Str("target", target(cfg)).Msg("database connected")
	return conn, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.DSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.File), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// target describes the database without credentials, for logs.
func target(cfg config.DatabaseConfig) string {
	if cfg.Driver == "sqlite" {
		return cfg.File
	}
	return fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Name)
}

// Ping runs a trivial query; used at startup and by /healthz.
func Ping(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Exec("SELECT 1").Error
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-desk/internal/config"
	"github.com/diewo77/invoice-desk/internal/db"
	"github.com/diewo77/invoice-desk/internal/logging"
	"github.com/diewo77/invoice-desk/internal/middleware"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if *migrateOnlyFlag {
		if err := migrate(dbConn, cfg.Database); err != nil {
			return err
		}
		log.Info().Msg("migrations completed")
		return nil
	}

	// Run migrations on startup if enabled
	if cfg.App.Migrations {
		if err := migrate(dbConn, cfg.Database); err != nil {
			return err
		}
		log.Info().Msg("migrations completed")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(log, NewApp(dbConn, cfg, log)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Bool("dev", cfg.App.Dev).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("server stopped gracefully")
	return nil
}

// migrate applies the versioned SQL migrations on Postgres and falls back to
// AutoMigrate elsewhere (SQLite in development).
func migrate(conn *gorm.DB, cfg config.DatabaseConfig) error {
	if cfg.Driver == "postgres" {
		if err := db.RunSQLMigrations(cfg.URL()); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
		return nil
	}
	if err := db.Migrate(conn); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// withLogging adds panic recovery and request logging.
func withLogging(log zerolog.Logger, next http.Handler) http.Handler {
	return middleware.AccessLog(log)(middleware.Recover(log)(next))
}

package db

import (
	"embed"
	"errors"
	"fmt"

	migrate "github.com/golang-migrate/migrate/v4"
	// Registers the postgres driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-desk/internal/models"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate brings the schema up to date with the models using GORM AutoMigrate.
func Migrate(db *gorm.DB) error {
	for _, m := range []any{&models.User{}, &models.Invoice{}, &models.InvoiceLine{}} {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"users", "invoices", "invoice_lines"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// RunSQLMigrations applies the embedded SQL migrations to a postgres database
// given in URL form. An already current schema is not an error.
func RunSQLMigrations(databaseURL string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

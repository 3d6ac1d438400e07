package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"GTMEngine/internal/config"
	"GTMEngine/migrations"
)

// Migrate applies every pending migration for driver. The caller keeps ownership of db.
func Migrate(db *sql.DB, driver string) error {
	if db == nil {
		return errors.New("migrate: nil db")
	}

	var (
		target database.Driver
		err    error
	)
	switch driver {
	case config.DriverPostgres:
		target, err = postgres.WithInstance(db, &postgres.Config{})
	case config.DriverSQLite:
		target, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return fmt.Errorf("migrate: unsupported driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("migrate: init %s driver: %w", driver, err)
	}

	src, err := iofs.New(migrations.FS, driver)
	if err != nil {
		return fmt.Errorf("migrate: load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return fmt.Errorf("migrate: create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: apply: %w", err)
	}
	return nil
}

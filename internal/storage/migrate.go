package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrationsFS embed.FS

// RunMigrations brings the schema for driver up to date.
func RunMigrations(driverName, dsn string) error {
	// Create a separate connection for migrations; closing the migrate
	// instance closes the handle it was given.
	migrateDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	var driver database.Driver
	switch driverName {
	case "sqlite":
		driver, err = sqlite.WithInstance(migrateDB, &sqlite.Config{})
	case "mysql":
		driver, err = migratemysql.WithInstance(migrateDB, &migratemysql.Config{})
	default:
		return fmt.Errorf("no migrations for driver %q", driverName)
	}
	if err != nil {
		return fmt.Errorf("create %s migration driver: %w", driverName, err)
	}

	d, err := iofs.New(migrationsFS, "migrations/"+driverName)
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, driverName, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

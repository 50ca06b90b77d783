// Package sqlstore implements the naparnik repositories on sqlite or postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed migrations/*.sql
var migrations embed.FS

type DB struct {
	*sql.DB
	Driver string
}

// Open connects to a sqlite://path or postgres:// URL.
func Open(url string) (*DB, error) {
	var (
		driver, dsn string
	)
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		driver, dsn = DriverSQLite, strings.TrimPrefix(url, "sqlite://")
		if !strings.Contains(dsn, "_pragma=") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		}
	case strings.HasPrefix(url, "postgres://"):
		driver, dsn = DriverPostgres, url
	default:
		return nil, fmt.Errorf("unsupported database url %q", url)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// single writer
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{DB: db, Driver: driver}, nil
}

// Migrate applies every pending migration.
func (db *DB) Migrate(ctx context.Context) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}

	var drv database.Driver
	switch db.Driver {
	case DriverSQLite:
		drv, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	case DriverPostgres:
		conn, connErr := db.Conn(ctx)
		if connErr != nil {
			return connErr
		}
		defer conn.Close() //nolint
		drv, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
	default:
		err = fmt.Errorf("unsupported driver %q", db.Driver)
	}
	if err != nil {
		return fmt.Errorf("failed to init migration driver: %w", err)
	}

	// closing m would close db
	m, err := migrate.NewWithInstance("iofs", src, db.Driver, drv)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed migration: %w", err)
	}
	return nil
}

func (db *DB) rebind(query string) string {
	return sqlx.Rebind(sqlx.BindType(db.Driver), query)
}

// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	sqlite "github.com/mattn/go-sqlite3"

	"github.com/codr1/CampusCourts/internal/config"
	dbgen "github.com/codr1/CampusCourts/internal/db/generated"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// defaultDSNParams are applied to every SQLite connection string unless the
// caller already set them. Write transactions take the write lock at BEGIN so
// two bookings for the same court serialize instead of deadlocking on upgrade.
var defaultDSNParams = []struct{ key, value string }{
	{"_fk", "1"},
	{"_txlock", "immediate"},
	{"_busy_timeout", "5000"},
}

type DB struct {
	*sql.DB
	Queries *dbgen.Queries
}

// New opens a SQLite database for the given data source name, applies the
// default connection parameters and embedded migrations, and returns a DB with
// generated queries bound to the connection.
func New(dataSourceName string) (*DB, error) {
	sqlDB, err := Open(dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := runMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	return &DB{
		DB:      sqlDB,
		Queries: dbgen.New(sqlDB),
	}, nil
}

// Open opens a SQLite handle with the default connection parameters and
// without running migrations.
func Open(dataSourceName string) (*sql.DB, error) {
	return sql.Open("sqlite3", withDefaultDSNParams(dataSourceName))
}

// NewFromConfig creates the database directory if needed and opens the
// configured SQLite file through New.
func NewFromConfig(cfg *config.Config) (*DB, error) {
	if cfg.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Filename), 0755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}

	database, err := New(cfg.Database.Filename)
	if err != nil {
		return nil, err
	}
	if cfg.Database.MaxOpenConns > 0 {
		database.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	return database, nil
}

// withDefaultDSNParams appends every default parameter the DSN does not
// already carry, using `?` or `&` as appropriate.
func withDefaultDSNParams(dataSourceName string) string {
	for _, param := range defaultDSNParams {
		if strings.Contains(dataSourceName, param.key+"=") {
			continue
		}
		sep := "?"
		if strings.Contains(dataSourceName, "?") {
			sep = "&"
		}
		dataSourceName += sep + param.key + "=" + param.value
	}
	return dataSourceName
}

// NewMigrator returns a migrate instance over the embedded migrations for an
// already open SQLite handle. Closing the migrator closes sqlDB.
func NewMigrator(sqlDB *sql.DB) (*migrate.Migrate, error) {
	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("could not create migrate driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("could not create source: %w", err)
	}

	m, err := migrate.NewWithInstance(
		"iofs", source,
		"sqlite3", driver,
	)
	if err != nil {
		return nil, fmt.Errorf("could not create migrate instance: %w", err)
	}
	return m, nil
}

// runMigrations applies the embedded SQL migrations to the provided database.
// A "no change" result is not treated as an error.
func runMigrations(db *sql.DB) error {
	m, err := NewMigrator(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY
// constraint failure.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite.ErrConstraintPrimaryKey
}

// IsUnavailable reports whether err means the store could not serve the
// request at all: the database is locked or busy, I/O failed, or the wait
// for the write lock ran past the request deadline.
func IsUnavailable(err error) bool {
	var sqliteErr sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded)
	}
	switch sqliteErr.Code {
	case sqlite.ErrBusy, sqlite.ErrLocked, sqlite.ErrIoErr, sqlite.ErrFull, sqlite.ErrCantOpen:
		return true
	}
	return false
}

// WithTx creates a new DB instance with the given transaction
func (db *DB) WithTx(tx *sql.Tx) *DB {
	return &DB{
		DB:      db.DB,
		Queries: dbgen.New(tx),
	}
}

// BeginTx starts a transaction
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	return tx, nil
}

// RunInTx runs the given function in a transaction
func (db *DB) RunInTx(ctx context.Context, fn func(*DB) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	txDB := db.WithTx(tx)
	if err := fn(txDB); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("error rolling back: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing: %w", err)
	}

	return nil
}

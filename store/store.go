// Package store keeps users and tasks in a relational database.
//
// SQLite (mattn/go-sqlite3) is the default backend, PostgreSQL is
// reachable through the pgx stdlib driver. Queries are written once
// with $N placeholders, which both engines accept as long as the
// placeholders appear in argument order.
//
// Uniqueness of user emails is enforced by the database itself, the
// store only translates the engine specific constraint error into
// DuplicateEmail.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/andrebq/taskbox/internal/logutil"
	"github.com/andrebq/taskbox/store/migrations"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

type (
	Driver string

	Store struct {
		db     *sql.DB
		driver Driver
	}

	// DBTX is satisfied by both *sql.DB and *sql.Tx
	DBTX interface {
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}
)

const (
	SQLite   = Driver("sqlite3")
	Postgres = Driver("pgx")

	pgUniqueViolation = "23505"
)

func ParseDriver(name string) (Driver, error) {
	switch name {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	}
	return "", fmt.Errorf("store: unknown driver %q (use sqlite3 or pgx)", name)
}

func openDatabase(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	connstr := dsn
	if driver == SQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("unable to create directory to store %v, cause %w", dsn, err)
		}
		connstr = fmt.Sprintf("file:%v?_foreign_keys=on&_journal=wal&_busy_timeout=5000&mode=rwc", dsn)
	}
	conn, err := sql.Open(string(driver), connstr)
	if err != nil {
		return nil, fmt.Errorf("unable to open %v database, cause %w", driver, err)
	}
	if driver == SQLite {
		// a single writer avoids SQLITE_BUSY under concurrent registrations,
		// the unique index still decides which one wins
		conn.SetMaxOpenConns(1)
	}
	err = conn.PingContext(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to ping %v database, cause %w", driver, err)
	}
	return conn, nil
}

// Open connects to the database and applies pending migrations.
func Open(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	conn, err := openDatabase(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{db: conn, driver: driver}
	if err := s.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	var (
		dialect goose.Dialect
		fsys    fs.FS
		err     error
	)
	switch s.driver {
	case SQLite:
		dialect = goose.DialectSQLite3
		fsys, err = fs.Sub(migrations.SQLite, "sqlite")
	case Postgres:
		dialect = goose.DialectPostgres
		fsys, err = fs.Sub(migrations.Postgres, "postgres")
	default:
		return fmt.Errorf("store: no migrations for driver %v", s.driver)
	}
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(dialect, s.db, fsys)
	if err != nil {
		return fmt.Errorf("unable to load migrations, cause %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("unable to apply migrations, cause %w", err)
	}
	log := logutil.GetOrDefault(ctx)
	for _, r := range results {
		log.Info().Int64("version", r.Source.Version).Dur("duration", r.Duration).Str("driver", string(s.driver)).Msg("Migration applied")
	}
	return nil
}

// WithTx runs fn inside a transaction, committing only when fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to start transaction, cause %w", err)
	}
	if err := fn(ctx, tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			return fmt.Errorf("%v (rollback failed, cause %v)", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("unable to commit transaction, cause %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

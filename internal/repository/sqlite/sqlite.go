// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of the SQLite C code, so the binary builds
// without a C compiler and cross-compiles like any other Go program.
//
// SCHEMA MIGRATIONS:
// The schema lives in migrations/*.sql, embedded into the binary with
// go:embed and applied by goose when the database is opened. goose records
// which versions ran in its own goose_db_version table, so reopening an
// existing file only applies what is new.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// DB wraps a sql.DB connection pool. It implements every repository
// interface in internal/repository.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and brings the schema up to date.
//
// dbPath examples:
//   - "data/market.db" → file-based database (persistent, WAL journal)
//   - ":memory:"       → in-memory database (tests)
//
// PRAGMAS PER CONNECTION:
// sql.DB is a pool, and PRAGMAs are per-connection state. Running
// "PRAGMA foreign_keys=ON" once would only configure whichever connection
// happened to serve that Exec. The _pragma DSN parameters are applied by the
// driver to every connection it opens instead.
func New(dbPath string) (*DB, error) {
	memory := dbPath == ":memory:"

	pragmas := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}
	if !memory {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	dsn := dbPath + "?" + strings.Join(pragmas, "&")

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is its own empty database, so the pool
	// must never hold more than one.
	if memory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) migrate(ctx context.Context) error {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn, migrations)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// CONSTRAINT ERRORS:
// The driver reports constraint failures as *sqlite.Error carrying SQLite's
// extended result code. We translate the two we care about into domain
// errors so the engine's message never reaches a caller.

func isUniqueViolation(err error) bool {
	return hasConstraintCode(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE")
}

func isForeignKeyViolation(err error) bool {
	return hasConstraintCode(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY")
}

func hasConstraintCode(err error, code int, marker string) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.Code() == code {
		return true
	}
	// Primary result code only: fall back to the message.
	return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
		strings.Contains(sqliteErr.Error(), marker)
}

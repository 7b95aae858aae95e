package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	logstd "log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #region store-struct
// Store persists NPCs, their profiles, chat history and groups.
type Store struct {
	db     *sqlx.DB
	driver string
}

// #endregion store-struct

// #region constructor
// Open connects to sqlite or postgres and runs migrations.
func Open(driver, dsn string) (*Store, error) {
	driver = strings.ToLower(driver)
	switch driver {
	case "sqlite":
		dsn = sqliteDSN(dsn)
	case "postgres":
	default:
		return nil, fmt.Errorf("open db: unsupported driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if driver == "sqlite" {
		// one writer avoids SQLITE_BUSY under concurrent requests
		db.SetMaxOpenConns(1)
	}
	if err := Migrate(db.DB, driver); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, driver: driver}, nil
}

// sqliteDSN enables foreign keys and WAL on every pooled connection.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Migrate applies the embedded goose migrations.
func Migrate(db *sql.DB, driver string) error {
	goose.SetLogger(logstd.New(io.Discard, "", 0))
	goose.SetBaseFS(embedMigrations)

	dialect := "sqlite3"
	if driver == "postgres" {
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// #endregion constructor

// #region accessors
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying handle for use by other packages (e.g. logging).
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Driver reports "sqlite" or "postgres".
func (s *Store) Driver() string {
	return s.driver
}

// #endregion accessors

// #region helpers
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// affectedOrNotFound turns a zero-row UPDATE into ErrNotFound.
func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// #endregion helpers

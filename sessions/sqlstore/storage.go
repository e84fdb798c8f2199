// Package sqlstore is a database/sql implementation of sessions.Store and
// bots.Repo. SQLite (modernc.org/sqlite) and PostgreSQL (pgx) are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver, registered as "pgx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // SQLite driver, registered as "sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var migrateLock sync.Mutex

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Store persists users, sessions and bots. Times are stored as unix milliseconds.
type Store struct {
	db      *sql.DB
	driver  string
	nowTime func() time.Time
}

// Option defines a function type to modify the Store instance.
type Option func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// Open connects to the database, applies pragmas for SQLite and runs migrations.
// Use ":memory:" with DriverSQLite for tests.
func Open(ctx context.Context, driver, dsn string, options ...Option) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, errors.Errorf("[sqlstore.Open] unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlstore.Open] open database")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[sqlstore.Open] ping database")
	}

	if driver == DriverSQLite {
		// One writer at a time, and ":memory:" databases are per connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		pragmas := []string{
			"PRAGMA journal_mode = WAL;",
			"PRAGMA synchronous = NORMAL;",
			"PRAGMA foreign_keys = ON;",
			"PRAGMA busy_timeout = 5000;",
		}
		for _, pragma := range pragmas {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				_ = db.Close()
				return nil, errors.Wrapf(err, "[sqlstore.Open] %s", pragma)
			}
		}
	}

	s := New(db, driver, options...)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already open database without migrating it.
func New(db *sql.DB, driver string, options ...Option) *Store {
	s := &Store{
		db:      db,
		driver:  driver,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Migrate applies the embedded migrations. goose keeps its dialect and
// filesystem in package state, so migrations are serialised.
func (s *Store) Migrate(ctx context.Context) error {
	migrateLock.Lock()
	defer migrateLock.Unlock()

	dialect := "sqlite3"
	if s.driver == DriverPostgres {
		dialect = "postgres"
	}
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return errors.Wrap(err, "[sqlstore.Migrate] goose dialect")
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return errors.Wrap(err, "[sqlstore.Migrate] goose up")
	}
	version, err := goose.GetDBVersionContext(ctx, s.db)
	if err != nil {
		return errors.Wrap(err, "[sqlstore.Migrate] goose version")
	}
	log.Debug().Str("driver", s.driver).Int64("version", version).Msg("database migrated")
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for testing purposes
func (s *Store) DB() *sql.DB {
	return s.db
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) now() int64 {
	return s.nowTime().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}

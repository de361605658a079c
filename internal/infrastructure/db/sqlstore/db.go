// Package sqlstore is the relational credential store. It speaks to
// PostgreSQL through lib/pq and to SQLite through mattn/go-sqlite3, with the
// schema managed by embedded, versioned migrations per dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"

	defaultTimeout = 5 * time.Second
)

// Config captures the settings required to open the database.
type Config struct {
	Driver   string
	DSN      string
	PoolSize int
	Timeout  time.Duration
}

// DB wraps the sql.DB connection pool together with its dialect.
type DB struct {
	*sql.DB
	dialect string
	logger  zerolog.Logger
}

// Open connects, verifies connectivity with a ping and applies pending
// migrations.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*DB, error) {
	switch cfg.Driver {
	case DialectPostgres, DialectSQLite:
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	sqlDB, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.PoolSize > 0 {
		sqlDB.SetMaxOpenConns(cfg.PoolSize)
		sqlDB.SetMaxIdleConns(cfg.PoolSize)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{DB: sqlDB, dialect: cfg.Driver, logger: logger}

	if db.dialect == DialectSQLite {
		// journal_mode is not supported for in-memory databases.
		_, _ = sqlDB.ExecContext(ctx, `PRAGMA journal_mode=WAL`)
		if _, err := sqlDB.ExecContext(ctx, `PRAGMA busy_timeout=5000`); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}

	if err := db.applyMigrations(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info().Str("driver", cfg.Driver).Msg("database connection established")
	return db, nil
}

// Dialect returns the driver name the database was opened with.
func (db *DB) Dialect() string { return db.dialect }

// Close closes the database connection pool.
func (db *DB) Close() error {
	db.logger.Info().Msg("closing database connection")
	return db.DB.Close()
}

// Ping checks that the database answers a trivial query.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}
	return nil
}

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// rebind rewrites $N placeholders into the dialect's numbered form.
// SQLite takes ?N, which binds by number rather than by first appearance.
func (db *DB) rebind(query string) string {
	if db.dialect == DialectSQLite {
		return placeholderRe.ReplaceAllString(query, "?$1")
	}
	return query
}

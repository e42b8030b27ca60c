// Package sqldb opens a database/sql engine and pins one connection to it
// for the whole session.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/askql/askql/internal/config"
)

type Engine struct {
	driver string
	db     *sql.DB
	conn   *sql.Conn

	closeOnce sync.Once
	closeErr  error
}

// Open connects with driver and dsn and reserves a single connection.
// connectTimeout bounds the ping; zero waits on ctx alone.
func Open(ctx context.Context, driver, dsn string, connectTimeout time.Duration) (*Engine, error) {
	driver = strings.TrimSpace(driver)
	switch driver {
	case config.DriverSQLite, config.DriverPostgres, config.DriverMySQL, config.DriverDuckDB:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return FromDB(ctx, driver, db, connectTimeout)
}

// FromDB takes ownership of db. It is closed together with the engine.
func FromDB(ctx context.Context, driver string, db *sql.DB, connectTimeout time.Duration) (*Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	db.SetMaxOpenConns(1)

	if connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, connectTimeout)
		defer cancel()
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &Engine{driver: driver, db: db, conn: conn}, nil
}

func (e *Engine) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return e.conn.QueryContext(ctx, query, args...)
}

func (e *Engine) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return e.conn.ExecContext(ctx, query, args...)
}

func (e *Engine) Driver() string { return e.driver }

// Close releases the connection and the pool. Calls after the first return
// the first result.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		connErr := e.conn.Close()
		dbErr := e.db.Close()
		if connErr != nil {
			e.closeErr = fmt.Errorf("close connection: %w", connErr)
			return
		}
		if dbErr != nil {
			e.closeErr = fmt.Errorf("close database: %w", dbErr)
		}
	})
	return e.closeErr
}

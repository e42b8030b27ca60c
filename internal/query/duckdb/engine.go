// Package duckdb serves a parquet export from object storage through an
// in-memory DuckDB, one view per table.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/askql/askql/internal/config"
	"github.com/askql/askql/internal/storage"
)

type Engine struct {
	db      *sql.DB
	conn    *sql.Conn
	workDir string
	tables  []string

	closeOnce sync.Once
	closeErr  error
}

// Open downloads every table listed in the manifest at manifestKey and
// registers it as a view. An object whose size differs from its manifest
// entry fails the open.
func Open(ctx context.Context, store storage.Reader, manifestKey string) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	entries, err := storage.ReadManifest(ctx, store, manifestKey)
	if err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp("", "askql-parquet-")
	if err != nil {
		return nil, fmt.Errorf("create parquet temp dir: %w", err)
	}
	engine := &Engine{workDir: workDir}
	if err := engine.load(ctx, store, entries); err != nil {
		_ = engine.Close()
		return nil, err
	}
	return engine, nil
}

func (e *Engine) load(ctx context.Context, store storage.Reader, entries []storage.ManifestEntry) error {
	localPaths := make(map[string]string, len(entries))
	for index, entry := range entries {
		if err := verifySize(ctx, store, entry); err != nil {
			return err
		}
		localPath := filepath.Join(e.workDir, fmt.Sprintf("%s_%d.parquet", sanitizeFileComponent(entry.Table), index))
		if err := download(ctx, store, entry.Path, localPath); err != nil {
			return err
		}
		localPaths[entry.Table] = localPath
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("open duckdb: %w", err)
	}
	db.SetMaxOpenConns(1)
	e.db = db
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("connect duckdb: %w", err)
	}
	e.conn = conn

	for _, entry := range entries {
		viewSQL := fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet(%s)`,
			quoteIdent(entry.Table), quoteString(localPaths[entry.Table]))
		if _, err := conn.ExecContext(ctx, viewSQL); err != nil {
			return fmt.Errorf("create view for table %q: %w", entry.Table, err)
		}
		e.tables = append(e.tables, entry.Table)
	}
	return nil
}

// verifySize catches a manifest that points at objects from another export.
// Entries without a recorded size are only checked for existence.
func verifySize(ctx context.Context, store storage.Reader, entry storage.ManifestEntry) error {
	info, err := store.Stat(ctx, entry.Path)
	if err != nil {
		return fmt.Errorf("stat table %q: %w", entry.Table, err)
	}
	if entry.SizeBytes > 0 && info.Size != entry.SizeBytes {
		return fmt.Errorf("table %q: object %q has %d bytes, manifest expects %d", entry.Table, entry.Path, info.Size, entry.SizeBytes)
	}
	return nil
}

func download(ctx context.Context, store storage.Reader, key, localPath string) error {
	reader, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get object %q: %w", key, err)
	}
	defer func() { _ = reader.Close() }()

	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create local parquet file %q: %w", localPath, err)
	}
	if _, err := io.Copy(file, reader); err != nil {
		_ = file.Close()
		return fmt.Errorf("write local parquet file %q: %w", localPath, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close local parquet file %q: %w", localPath, err)
	}
	return nil
}

func (e *Engine) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return e.conn.QueryContext(ctx, query, args...)
}

func (e *Engine) Driver() string { return config.DriverDuckDBParquet }

// Tables lists the registered views in manifest order.
func (e *Engine) Tables() []string { return append([]string(nil), e.tables...) }

// Close drops the DuckDB connection and the downloaded files.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		var errs []string
		if e.conn != nil {
			if err := e.conn.Close(); err != nil {
				errs = append(errs, "close connection: "+err.Error())
			}
		}
		if e.db != nil {
			if err := e.db.Close(); err != nil {
				errs = append(errs, "close duckdb: "+err.Error())
			}
		}
		if err := os.RemoveAll(e.workDir); err != nil {
			errs = append(errs, "remove temp dir: "+err.Error())
		}
		if len(errs) > 0 {
			e.closeErr = fmt.Errorf("%s", strings.Join(errs, "; "))
		}
	})
	return e.closeErr
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}

func sanitizeFileComponent(value string) string {
	value = strings.ReplaceAll(value, "/", "_")
	value = strings.ReplaceAll(value, "..", "_")
	if value == "" {
		return "table"
	}
	return value
}

package seed

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/askql/askql/internal/query/duckdb"
	"github.com/askql/askql/internal/storage"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "erp_demo.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPrepareMigratesAndSeeds(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	result, err := Prepare(ctx, db, Options{})
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if result.MigrationsApplied != 1 {
		t.Fatalf("MigrationsApplied = %d", result.MigrationsApplied)
	}
	if result.Rows["Customers"] != 10 {
		t.Fatalf("Rows = %v", result.Rows)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM Customers`).Scan(&count); err != nil {
		t.Fatalf("count customers: %v", err)
	}
	if count != 10 {
		t.Fatalf("customers = %d", count)
	}
	var name string
	if err := db.QueryRowContext(ctx, `
SELECT c.CustomerName FROM SalesOrders so
JOIN Customers c ON c.CustomerId = so.CustomerId
WHERE so.SONumber = 'SO-50001'`).Scan(&name); err != nil {
		t.Fatalf("join sales order: %v", err)
	}
	if name != "Alpha Corp" {
		t.Fatalf("SO-50001 customer = %q", name)
	}

	if _, err := Prepare(ctx, db, Options{}); !errors.Is(err, ErrAlreadySeeded) {
		t.Fatalf("second Prepare() error = %v, want ErrAlreadySeeded", err)
	}

	reset, err := Prepare(ctx, db, Options{Reset: true})
	if err != nil {
		t.Fatalf("Prepare(reset) error = %v", err)
	}
	if reset.MigrationsRolledBack != 1 || reset.MigrationsApplied != 1 {
		t.Fatalf("reset result = %+v", reset)
	}
}

func TestExportParquetFeedsDuckDBEngine(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	if _, err := Prepare(ctx, db, Options{}); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	store := &memoryStore{objects: map[string][]byte{}}
	entries, err := ExportParquet(ctx, db, store, "manifest.json", TableNames(Generate()))
	if err != nil {
		t.Fatalf("ExportParquet() error = %v", err)
	}
	if len(entries) != 12 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].Path != "tables/Sites.parquet" || entries[0].SizeBytes == 0 {
		t.Fatalf("first entry = %+v", entries[0])
	}

	engine, err := duckdb.Open(ctx, store, "manifest.json")
	if err != nil {
		t.Fatalf("duckdb.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })

	var total float64
	rows, err := engine.QueryContext(ctx, `SELECT SUM(Quantity * UnitPrice) FROM PurchaseOrderLines WHERE POId = 1`)
	if err != nil {
		t.Fatalf("QueryContext() error = %v", err)
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		t.Fatal("expected one row")
	}
	if err := rows.Scan(&total); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if total != 100*25.50+50*5.75 {
		t.Fatalf("PO-10001 total = %v", total)
	}
}

func TestExportParquetReplacesPreviousExport(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	if _, err := Prepare(ctx, db, Options{}); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	store := &memoryStore{objects: map[string][]byte{"tables/Retired.parquet": []byte("old")}}
	if _, err := storage.WriteManifest(ctx, store, "manifest.json", []storage.ManifestEntry{
		{Table: "Retired", Path: "tables/Retired.parquet", SizeBytes: 3},
	}); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}

	if _, err := ExportParquet(ctx, db, store, "manifest.json", []string{"Sites"}); err != nil {
		t.Fatalf("ExportParquet() error = %v", err)
	}
	if _, ok := store.objects["tables/Retired.parquet"]; ok {
		t.Fatal("object from the previous export was kept")
	}
	entries, err := storage.ReadManifest(ctx, store, "manifest.json")
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Table != "Sites" {
		t.Fatalf("manifest = %+v", entries)
	}
}

func TestExportParquetValidatesInput(t *testing.T) {
	db := openSQLite(t)
	if _, err := ExportParquet(context.Background(), db, nil, "manifest.json", []string{"Sites"}); err == nil {
		t.Fatal("expected error for nil store")
	}
	store := &memoryStore{objects: map[string][]byte{}}
	if _, err := ExportParquet(context.Background(), db, store, "manifest.json", nil); err == nil {
		t.Fatal("expected error for no tables")
	}
	if _, err := ExportParquet(context.Background(), db, store, "manifest.json", []string{"Missing"}); err == nil {
		t.Fatal("expected error for a table that does not exist")
	}
}

type memoryStore struct {
	objects map[string][]byte
}

func (m *memoryStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ storage.PutOptions) (storage.ObjectInfo, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	m.objects[key] = data
	return storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStore) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	data, ok := m.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

package duckdb

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/askql/askql/internal/config"
	"github.com/askql/askql/internal/storage"
)

type customerRow struct {
	CustomerID int64  `parquet:"CustomerId"`
	Name       string `parquet:"CustomerName"`
	City       string `parquet:"City"`
}

func TestOpenRegistersViewsFromManifest(t *testing.T) {
	store := newFixtureStore(t, []customerRow{
		{CustomerID: 1, Name: "Acme", City: "Paris"},
		{CustomerID: 2, Name: "Globex", City: "Berlin"},
		{CustomerID: 3, Name: "Initech", City: "Paris"},
	})

	engine, err := Open(context.Background(), store, "manifest.json")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })

	if engine.Driver() != config.DriverDuckDBParquet {
		t.Fatalf("Driver() = %q", engine.Driver())
	}
	if got := engine.Tables(); len(got) != 1 || got[0] != "Customers" {
		t.Fatalf("Tables() = %v", got)
	}

	rows, err := engine.QueryContext(context.Background(), `SELECT COUNT(*) FROM Customers WHERE City = 'Paris'`)
	if err != nil {
		t.Fatalf("QueryContext() error = %v", err)
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		t.Fatal("expected one row")
	}
	var count int64
	if err := rows.Scan(&count); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d", count)
	}
}

func TestCloseRemovesDownloadedFiles(t *testing.T) {
	store := newFixtureStore(t, []customerRow{{CustomerID: 1, Name: "Acme", City: "Paris"}})
	engine, err := Open(context.Background(), store, "manifest.json")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	workDir := engine.workDir
	if err := engine.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if _, err := os.Stat(workDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temp dir still present: %v", err)
	}
}

func TestOpenFailsWhenObjectMissing(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}}
	if _, err := storage.WriteManifest(context.Background(), store, "manifest.json", []storage.ManifestEntry{
		{Table: "Customers", Path: "tables/Customers.parquet"},
	}); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}
	if _, err := Open(context.Background(), store, "manifest.json"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Open() error = %v, want ErrObjectNotFound", err)
	}
	if _, err := Open(context.Background(), &memoryStore{objects: map[string][]byte{}}, "manifest.json"); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}

func TestOpenRejectsSizeMismatch(t *testing.T) {
	store := newFixtureStore(t, []customerRow{{CustomerID: 1, Name: "Acme", City: "Paris"}})
	store.objects["tables/Customers.parquet"] = append(store.objects["tables/Customers.parquet"], 0)

	_, err := Open(context.Background(), store, "manifest.json")
	if err == nil {
		t.Fatal("Open() expected error for a stale object")
	}
	if !strings.Contains(err.Error(), "manifest expects") {
		t.Fatalf("Open() error = %v", err)
	}
	if store.gets != 1 {
		t.Fatalf("Get() called %d times, want only the manifest read", store.gets)
	}
}

func newFixtureStore(t *testing.T, rows []customerRow) *memoryStore {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[customerRow](buf)
	if _, err := writer.Write(rows); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close parquet writer: %v", err)
	}

	store := &memoryStore{objects: map[string][]byte{"tables/Customers.parquet": buf.Bytes()}}
	if _, err := storage.WriteManifest(context.Background(), store, "manifest.json", []storage.ManifestEntry{
		{Table: "Customers", Path: "tables/Customers.parquet", SizeBytes: int64(buf.Len())},
	}); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}
	return store
}

type memoryStore struct {
	objects map[string][]byte
	gets    int
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
	m.gets++
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

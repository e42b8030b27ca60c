package seed

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/askql/askql/internal/storage"
)

const parquetContentType = "application/vnd.apache.parquet"

type columnKind int

const (
	kindString columnKind = iota
	kindInt64
	kindDouble
)

// ExportParquet writes every table of the dataset, as currently stored in db,
// to store and then publishes the manifest at manifestKey. Objects listed by
// a previous manifest at manifestKey are removed first.
func ExportParquet(ctx context.Context, db *sql.DB, store storage.ObjectStore, manifestKey string, tables []string) ([]storage.ManifestEntry, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables to export")
	}

	if _, err := storage.RemoveExport(ctx, store, manifestKey); err != nil {
		return nil, fmt.Errorf("remove previous export: %w", err)
	}

	entries := make([]storage.ManifestEntry, 0, len(tables))
	for _, table := range tables {
		key, err := storage.TableObjectKey(table)
		if err != nil {
			return nil, err
		}
		body, err := exportTable(ctx, db, table)
		if err != nil {
			return nil, err
		}
		info, err := store.Put(ctx, key, bytes.NewReader(body), int64(len(body)), storage.PutOptions{ContentType: parquetContentType})
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", table, err)
		}
		size := info.Size
		if size == 0 {
			size = int64(len(body))
		}
		entries = append(entries, storage.ManifestEntry{Table: table, Path: key, SizeBytes: size})
	}
	if _, err := storage.WriteManifest(ctx, store, manifestKey, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// TableNames lists the dataset tables in insert order.
func TableNames(dataset Dataset) []string {
	names := make([]string, 0, len(dataset.Tables))
	for _, table := range dataset.Tables {
		names = append(names, table.Name)
	}
	return names
}

func exportTable(ctx context.Context, db *sql.DB, table string) ([]byte, error) {
	rows, err := db.QueryContext(ctx, `SELECT * FROM `+quoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types of %s: %w", table, err)
	}
	names := make([]string, len(columnTypes))
	kinds := make([]columnKind, len(columnTypes))
	group := parquet.Group{}
	for i, columnType := range columnTypes {
		names[i] = columnType.Name()
		kinds[i] = kindFor(columnType.DatabaseTypeName())
		group[names[i]] = parquet.Optional(nodeFor(kinds[i]))
	}
	schema := parquet.NewSchema(table, group)

	// Group leaves are ordered by name.
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	leafIndex := make(map[string]int, len(sorted))
	for i, name := range sorted {
		leafIndex[name] = i
	}

	var buf bytes.Buffer
	writer := parquet.NewWriter(&buf, schema)
	for rows.Next() {
		values := make([]any, len(names))
		targets := make([]any, len(names))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make(parquet.Row, len(names))
		for i, name := range names {
			index := leafIndex[name]
			value, err := parquetValue(kinds[i], values[i])
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", table, name, err)
			}
			row[index] = value.Level(0, definitionLevel(value), index)
		}
		if _, err := writer.WriteRows([]parquet.Row{row}); err != nil {
			return nil, fmt.Errorf("write %s: %w", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer for %s: %w", table, err)
	}
	return buf.Bytes(), nil
}

func kindFor(databaseType string) columnKind {
	upper := strings.ToUpper(databaseType)
	switch {
	case strings.Contains(upper, "INT"):
		return kindInt64
	case strings.Contains(upper, "NUMERIC"), strings.Contains(upper, "REAL"),
		strings.Contains(upper, "DOUBLE"), strings.Contains(upper, "FLOAT"),
		strings.Contains(upper, "DECIMAL"):
		return kindDouble
	default:
		return kindString
	}
}

func nodeFor(kind columnKind) parquet.Node {
	switch kind {
	case kindInt64:
		return parquet.Int(64)
	case kindDouble:
		return parquet.Leaf(parquet.DoubleType)
	default:
		return parquet.String()
	}
}

func parquetValue(kind columnKind, raw any) (parquet.Value, error) {
	if raw == nil {
		return parquet.NullValue(), nil
	}
	switch kind {
	case kindInt64:
		switch v := raw.(type) {
		case int64:
			return parquet.Int64Value(v), nil
		case float64:
			return parquet.Int64Value(int64(v)), nil
		}
	case kindDouble:
		switch v := raw.(type) {
		case float64:
			return parquet.DoubleValue(v), nil
		case int64:
			return parquet.DoubleValue(float64(v)), nil
		}
	default:
		switch v := raw.(type) {
		case string:
			return parquet.ByteArrayValue([]byte(v)), nil
		case []byte:
			return parquet.ByteArrayValue(v), nil
		default:
			return parquet.ByteArrayValue([]byte(fmt.Sprint(v))), nil
		}
	}
	return parquet.Value{}, fmt.Errorf("unexpected value %T", raw)
}

func definitionLevel(value parquet.Value) int {
	if value.IsNull() {
		return 0
	}
	return 1
}

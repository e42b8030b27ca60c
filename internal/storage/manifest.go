package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ManifestEntry points at the parquet file holding one table.
type ManifestEntry struct {
	Table     string `json:"table"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
}

func WriteManifest(ctx context.Context, store ObjectStore, key string, entries []ManifestEntry) (ObjectInfo, error) {
	if err := validateManifest(entries); err != nil {
		return ObjectInfo{}, err
	}
	body, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("marshal manifest: %w", err)
	}
	info, err := store.Put(ctx, key, bytes.NewReader(body), int64(len(body)), PutOptions{ContentType: "application/json"})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("write manifest %q: %w", key, err)
	}
	return info, nil
}

func ReadManifest(ctx context.Context, store Reader, key string) ([]ManifestEntry, error) {
	reader, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read manifest %q: %w", key, err)
	}
	defer func() { _ = reader.Close() }()

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read manifest %q: %w", key, err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode manifest %q: %w", key, err)
	}
	if err := validateManifest(entries); err != nil {
		return nil, fmt.Errorf("manifest %q: %w", key, err)
	}
	return entries, nil
}

// RemoveExport deletes every table object listed in the manifest at key and
// then the manifest itself. A missing manifest is not an error. It returns
// the number of table objects removed.
func RemoveExport(ctx context.Context, store ObjectStore, key string) (int, error) {
	entries, err := ReadManifest(ctx, store, key)
	if errors.Is(err, ErrObjectNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if err := store.Delete(ctx, entry.Path); err != nil {
			return 0, fmt.Errorf("remove table %s: %w", entry.Table, err)
		}
	}
	if err := store.Delete(ctx, key); err != nil {
		return 0, fmt.Errorf("remove manifest %q: %w", key, err)
	}
	return len(entries), nil
}

func validateManifest(entries []ManifestEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("manifest has no tables")
	}
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if err := validatePathComponent(entry.Table, "table name"); err != nil {
			return err
		}
		if strings.TrimSpace(entry.Path) == "" {
			return fmt.Errorf("table %s has no path", entry.Table)
		}
		if _, dup := seen[entry.Table]; dup {
			return fmt.Errorf("table %s listed twice", entry.Table)
		}
		seen[entry.Table] = struct{}{}
	}
	return nil
}

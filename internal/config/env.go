package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

// Overlay returns a lookup that answers from overrides first and falls back
// to base. Empty override values are ignored.
func Overlay(base LookupFunc, overrides map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		if value, ok := overrides[key]; ok && strings.TrimSpace(value) != "" {
			return value, true
		}
		if base == nil {
			return "", false
		}
		return base(key)
	}
}

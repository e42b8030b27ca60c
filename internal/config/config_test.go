package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	cfg, err := Load("askql", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "erp_demo.db" {
		t.Fatalf("Database.DSN = %q", cfg.Database.DSN)
	}
	if cfg.Schema.Source != SchemaSourceEmbedded {
		t.Fatalf("Schema.Source = %q", cfg.Schema.Source)
	}
	if cfg.Schema.Dialect != "SQLite" {
		t.Fatalf("Schema.Dialect = %q", cfg.Schema.Dialect)
	}
	if cfg.Query.Timeout != 30*time.Second {
		t.Fatalf("Query.Timeout = %s", cfg.Query.Timeout)
	}
	if cfg.AI.Provider != ProviderGemini {
		t.Fatalf("AI.Provider = %q", cfg.AI.Provider)
	}
	if cfg.AI.Model != "gemini-2.5-flash" || cfg.AI.ExplainModel != "gemini-2.5-flash" {
		t.Fatalf("AI models = %q / %q", cfg.AI.Model, cfg.AI.ExplainModel)
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Observability.MetricsAddr != "" {
		t.Fatalf("MetricsAddr = %q", cfg.Observability.MetricsAddr)
	}
	if cfg.Parquet.ManifestKey != "manifest.json" {
		t.Fatalf("Parquet.ManifestKey = %q", cfg.Parquet.ManifestKey)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	cfg, err := Load("askql", mapLookup(map[string]string{"ASKQL_PROFILE": "prod"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Observability.LogJSON {
		t.Fatal("LogJSON should default to true in prod")
	}
	if !cfg.ObjectStore.UseSSL {
		t.Fatal("ObjectStore.UseSSL should default to true in prod")
	}
	if cfg.ObjectStore.AutoCreateBucket {
		t.Fatal("ObjectStore.AutoCreateBucket should default to false in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"ASKQL_PROFILE":            "test",
		"ASKQL_SERVICE_NAME":       "askql-custom",
		"ASKQL_DB_DRIVER":          "PGX",
		"ASKQL_DB_DSN":             "postgres://example",
		"ASKQL_DB_CONNECT_TIMEOUT": "2s",
		"ASKQL_SCHEMA_SOURCE":      "introspect",
		"ASKQL_QUERY_TIMEOUT":      "4s",
		"ASKQL_QUERY_MAX_ROWS":     "500",
		"ASKQL_AI_PROVIDER":        "openai",
		"ASKQL_AI_BASE_URL":        "https://api.example.com",
		"ASKQL_AI_API_KEY":         "secret-key",
		"ASKQL_AI_MODEL":           "gpt-5",
		"ASKQL_AI_EXPLAIN_MODEL":   "gpt-5-mini",
		"ASKQL_AI_TEMPERATURE":     "0.3",
		"ASKQL_AI_TIMEOUT":         "21s",
		"ASKQL_LOG_LEVEL":          "error",
		"ASKQL_METRICS_ADDR":       ":9464",
	})
	cfg, err := Load("askql", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "askql-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.ConnectTimeout != 2*time.Second {
		t.Fatalf("Database.ConnectTimeout = %s", cfg.Database.ConnectTimeout)
	}
	if cfg.Schema.Source != SchemaSourceIntrospect {
		t.Fatalf("Schema.Source = %q", cfg.Schema.Source)
	}
	if cfg.Schema.Dialect != "PostgreSQL" {
		t.Fatalf("Schema.Dialect = %q", cfg.Schema.Dialect)
	}
	if cfg.Query.Timeout != 4*time.Second || cfg.Query.MaxRows != 500 {
		t.Fatalf("Query = %+v", cfg.Query)
	}
	if cfg.AI.Provider != ProviderOpenAI {
		t.Fatalf("AI.Provider = %q", cfg.AI.Provider)
	}
	if cfg.AI.APIKey != "secret-key" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}
	if cfg.AI.ExplainModel != "gpt-5-mini" {
		t.Fatalf("AI.ExplainModel = %q", cfg.AI.ExplainModel)
	}
	if cfg.AI.Temperature != 0.3 {
		t.Fatalf("AI.Temperature = %f", cfg.AI.Temperature)
	}
	if cfg.AI.Timeout != 21*time.Second {
		t.Fatalf("AI.Timeout = %s", cfg.AI.Timeout)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Observability.MetricsAddr != ":9464" {
		t.Fatalf("MetricsAddr = %q", cfg.Observability.MetricsAddr)
	}
}

func TestLoadAPIKeyAliases(t *testing.T) {
	cfg, err := Load("askql", mapLookup(map[string]string{
		"GEMINI_API_KEY": "gemini-key",
		"OPENAI_API_KEY": "openai-key",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AI.APIKey != "gemini-key" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}
	if got := APIKeyAliases(ProviderGemini); len(got) != 2 || got[0] != "GOOGLE_API_KEY" {
		t.Fatalf("APIKeyAliases() = %v", got)
	}

	cfg, err = Load("askql", mapLookup(map[string]string{
		"ASKQL_AI_API_KEY": "primary",
		"GOOGLE_API_KEY":   "alias",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AI.APIKey != "primary" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}
}

func TestLoadOpenAIProviderDefaults(t *testing.T) {
	cfg, err := Load("askql", mapLookup(map[string]string{
		"ASKQL_AI_PROVIDER": "OpenAI",
		"GOOGLE_API_KEY":    "google-key",
		"OPENAI_API_KEY":    "openai-key",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AI.Provider != ProviderOpenAI {
		t.Fatalf("AI.Provider = %q", cfg.AI.Provider)
	}
	if cfg.AI.Model != "gpt-5" || cfg.AI.ExplainModel != "gpt-5" {
		t.Fatalf("AI models = %q / %q", cfg.AI.Model, cfg.AI.ExplainModel)
	}
	if cfg.AI.APIKey != "openai-key" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}

	cfg, err = Load("askql", mapLookup(map[string]string{
		"ASKQL_AI_PROVIDER": "openai",
		"ASKQL_AI_MODEL":    "local-llama",
		"GOOGLE_API_KEY":    "google-key",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AI.Model != "local-llama" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.APIKey != "" {
		t.Fatalf("AI.APIKey = %q, gemini aliases should not apply to openai", cfg.AI.APIKey)
	}
}

func TestLoadEmptyModelFallsBackToProviderDefault(t *testing.T) {
	cfg, err := Load("askql", mapLookup(map[string]string{"ASKQL_AI_MODEL": " "}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AI.Model != "gemini-2.5-flash" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"ASKQL_PROFILE": "oops"},
		{"ASKQL_DB_DRIVER": "oracle"},
		{"ASKQL_DB_DSN": ""},
		{"ASKQL_DB_CONNECT_TIMEOUT": "NaN"},
		{"ASKQL_SCHEMA_SOURCE": "guess"},
		{"ASKQL_SCHEMA_SOURCE": "file"},
		{"ASKQL_QUERY_MAX_ROWS": "-1"},
		{"ASKQL_QUERY_MAX_ROWS": "many"},
		{"ASKQL_AI_PROVIDER": "carrier-pigeon"},
		{"ASKQL_AI_TEMPERATURE": "bad"},
		{"ASKQL_OBJECTSTORE_USE_SSL": "not-bool"},
		{"ASKQL_LOG_LEVEL": "verbose"},
	}
	for _, env := range tests {
		_, err := Load("askql", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func TestOverlayPrefersNonEmptyOverrides(t *testing.T) {
	lookup := Overlay(mapLookup(map[string]string{
		"ASKQL_DB_DSN":     "from-env.db",
		"ASKQL_AI_API_KEY": "env-key",
	}), map[string]string{
		"ASKQL_AI_API_KEY": "flag-key",
		"ASKQL_DB_DSN":     "",
	})

	if got, _ := lookup("ASKQL_AI_API_KEY"); got != "flag-key" {
		t.Fatalf("ASKQL_AI_API_KEY = %q", got)
	}
	if got, _ := lookup("ASKQL_DB_DSN"); got != "from-env.db" {
		t.Fatalf("ASKQL_DB_DSN = %q", got)
	}
	if _, ok := lookup("ASKQL_MISSING"); ok {
		t.Fatal("expected missing key to stay missing")
	}
}

func TestLoadDotEnvDoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("ASKQL_TEST_DOTENV_A=from-file\nASKQL_TEST_DOTENV_B=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ASKQL_TEST_DOTENV_A", "from-process")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("ASKQL_TEST_DOTENV_B") })

	if got := os.Getenv("ASKQL_TEST_DOTENV_A"); got != "from-process" {
		t.Fatalf("A = %q", got)
	}
	if got := os.Getenv("ASKQL_TEST_DOTENV_B"); got != "from-file" {
		t.Fatalf("B = %q", got)
	}
}

func TestLoadDotEnvIgnoresMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	DriverSQLite        = "sqlite3"
	DriverPostgres      = "pgx"
	DriverMySQL         = "mysql"
	DriverDuckDB        = "duckdb"
	DriverDuckDBParquet = "duckdb-parquet"
)

const (
	SchemaSourceEmbedded   = "embedded"
	SchemaSourceFile       = "file"
	SchemaSourceIntrospect = "introspect"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// apiKeyAliases are consulted in order when ASKQL_AI_API_KEY is unset.
var apiKeyAliases = map[string][]string{
	ProviderGemini: {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	ProviderOpenAI: {"OPENAI_API_KEY"},
}

// defaultModels apply when ASKQL_AI_MODEL is unset or empty.
var defaultModels = map[string]string{
	ProviderGemini: "gemini-2.5-flash",
	ProviderOpenAI: "gpt-5",
}

// APIKeyAliases lists the provider-specific variables that can stand in for
// ASKQL_AI_API_KEY.
func APIKeyAliases(provider string) []string {
	return append([]string(nil), apiKeyAliases[provider]...)
}

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	Database      DatabaseConfig
	Schema        SchemaConfig
	Query         QueryConfig
	AI            AIConfig
	ObjectStore   ObjectStoreConfig
	Parquet       ParquetConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name string
}

type DatabaseConfig struct {
	Driver         string
	DSN            string
	ConnectTimeout time.Duration
}

type SchemaConfig struct {
	Source  string
	File    string
	Dialect string
}

type QueryConfig struct {
	Timeout time.Duration
	MaxRows int
}

type AIConfig struct {
	Provider     string
	BaseURL      string
	APIKey       string
	Model        string
	ExplainModel string
	Temperature  float64
	Timeout      time.Duration
}

type ObjectStoreConfig struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type ParquetConfig struct {
	ManifestKey string
}

type ObservabilityConfig struct {
	LogLevel    slog.Level
	LogJSON     bool
	MetricsAddr string
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("ASKQL_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid ASKQL_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	appliers := []func() error{
		func() error { return applyString(lookup, "ASKQL_SERVICE_NAME", &cfg.Service.Name) },
		func() error { return applyString(lookup, "ASKQL_DB_DRIVER", &cfg.Database.Driver) },
		func() error { return applyString(lookup, "ASKQL_DB_DSN", &cfg.Database.DSN) },
		func() error { return applyDuration(lookup, "ASKQL_DB_CONNECT_TIMEOUT", &cfg.Database.ConnectTimeout) },
		func() error { return applyString(lookup, "ASKQL_SCHEMA_SOURCE", &cfg.Schema.Source) },
		func() error { return applyString(lookup, "ASKQL_SCHEMA_FILE", &cfg.Schema.File) },
		func() error { return applyString(lookup, "ASKQL_SCHEMA_DIALECT", &cfg.Schema.Dialect) },
		func() error { return applyDuration(lookup, "ASKQL_QUERY_TIMEOUT", &cfg.Query.Timeout) },
		func() error { return applyInt(lookup, "ASKQL_QUERY_MAX_ROWS", &cfg.Query.MaxRows) },
		func() error { return applyString(lookup, "ASKQL_AI_PROVIDER", &cfg.AI.Provider) },
		func() error { return applyString(lookup, "ASKQL_AI_BASE_URL", &cfg.AI.BaseURL) },
		func() error { return applyString(lookup, "ASKQL_AI_MODEL", &cfg.AI.Model) },
		func() error { return applyString(lookup, "ASKQL_AI_EXPLAIN_MODEL", &cfg.AI.ExplainModel) },
		func() error { return applyFloat(lookup, "ASKQL_AI_TEMPERATURE", &cfg.AI.Temperature) },
		func() error { return applyDuration(lookup, "ASKQL_AI_TIMEOUT", &cfg.AI.Timeout) },
		func() error { return applyString(lookup, "ASKQL_OBJECTSTORE_ENDPOINT", &cfg.ObjectStore.Endpoint) },
		func() error { return applyString(lookup, "ASKQL_OBJECTSTORE_REGION", &cfg.ObjectStore.Region) },
		func() error { return applyString(lookup, "ASKQL_OBJECTSTORE_BUCKET", &cfg.ObjectStore.Bucket) },
		func() error { return applyString(lookup, "ASKQL_OBJECTSTORE_ACCESS_KEY", &cfg.ObjectStore.AccessKeyID) },
		func() error { return applyString(lookup, "ASKQL_OBJECTSTORE_SECRET_KEY", &cfg.ObjectStore.SecretAccessKey) },
		func() error { return applyBool(lookup, "ASKQL_OBJECTSTORE_USE_SSL", &cfg.ObjectStore.UseSSL) },
		func() error { return applyString(lookup, "ASKQL_OBJECTSTORE_PREFIX", &cfg.ObjectStore.Prefix) },
		func() error { return applyBool(lookup, "ASKQL_OBJECTSTORE_AUTO_CREATE_BUCKET", &cfg.ObjectStore.AutoCreateBucket) },
		func() error { return applyString(lookup, "ASKQL_PARQUET_MANIFEST", &cfg.Parquet.ManifestKey) },
		func() error { return applyBool(lookup, "ASKQL_LOG_JSON", &cfg.Observability.LogJSON) },
		func() error { return applyLogLevel(lookup, "ASKQL_LOG_LEVEL", &cfg.Observability.LogLevel) },
		func() error { return applyString(lookup, "ASKQL_METRICS_ADDR", &cfg.Observability.MetricsAddr) },
	}
	for _, apply := range appliers {
		if err := apply(); err != nil {
			return Config{}, err
		}
	}

	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	cfg.Schema.Source = strings.ToLower(cfg.Schema.Source)
	cfg.AI.Provider = strings.ToLower(cfg.AI.Provider)
	if _, ok := defaultModels[cfg.AI.Provider]; !ok {
		return Config{}, fmt.Errorf("invalid ASKQL_AI_PROVIDER: %q", cfg.AI.Provider)
	}
	applyAPIKey(lookup, cfg.AI.Provider, &cfg.AI.APIKey)
	if cfg.AI.Model == "" {
		cfg.AI.Model = defaultModels[cfg.AI.Provider]
	}
	if cfg.AI.ExplainModel == "" {
		cfg.AI.ExplainModel = cfg.AI.Model
	}
	if cfg.Schema.Dialect == "" {
		cfg.Schema.Dialect = DialectForDriver(cfg.Database.Driver)
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if !isValidDriver(cfg.Database.Driver) {
		return Config{}, fmt.Errorf("invalid ASKQL_DB_DRIVER: %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver != DriverDuckDBParquet {
		return Config{}, fmt.Errorf("database dsn is required")
	}
	switch cfg.Schema.Source {
	case SchemaSourceEmbedded, SchemaSourceIntrospect:
	case SchemaSourceFile:
		if cfg.Schema.File == "" {
			return Config{}, fmt.Errorf("ASKQL_SCHEMA_FILE is required when schema source is %q", SchemaSourceFile)
		}
	default:
		return Config{}, fmt.Errorf("invalid ASKQL_SCHEMA_SOURCE: %q", cfg.Schema.Source)
	}
	if cfg.Query.MaxRows < 0 {
		return Config{}, fmt.Errorf("invalid ASKQL_QUERY_MAX_ROWS: must be >= 0")
	}
	return cfg, nil
}

// DialectForDriver names the SQL dialect the translator is asked to produce.
func DialectForDriver(driver string) string {
	switch driver {
	case DriverPostgres:
		return "PostgreSQL"
	case DriverMySQL:
		return "MySQL"
	case DriverDuckDB, DriverDuckDBParquet:
		return "DuckDB"
	default:
		return "SQLite"
	}
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "askql"},
		Database: DatabaseConfig{
			Driver:         DriverSQLite,
			DSN:            "erp_demo.db",
			ConnectTimeout: 5 * time.Second,
		},
		Schema: SchemaConfig{
			Source: SchemaSourceEmbedded,
		},
		Query: QueryConfig{
			Timeout: 30 * time.Second,
			MaxRows: 0,
		},
		AI: AIConfig{
			Provider:    ProviderGemini,
			BaseURL:     "https://api.openai.com",
			Temperature: 0.1,
			Timeout:     60 * time.Second,
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "askql",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			Prefix:           "",
			AutoCreateBucket: true,
		},
		Parquet: ParquetConfig{
			ManifestKey: "manifest.json",
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelInfo,
			LogJSON:  false,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.Database.DSN = ":memory:"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Observability.LogJSON = true
		cfg.ObjectStore.UseSSL = true
		cfg.ObjectStore.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func isValidDriver(driver string) bool {
	switch driver {
	case DriverSQLite, DriverPostgres, DriverMySQL, DriverDuckDB, DriverDuckDBParquet:
		return true
	default:
		return false
	}
}

func applyAPIKey(lookup LookupFunc, provider string, dst *string) {
	for _, key := range append([]string{"ASKQL_AI_API_KEY"}, apiKeyAliases[provider]...) {
		if raw, ok := lookup(key); ok && strings.TrimSpace(raw) != "" {
			*dst = strings.TrimSpace(raw)
			return
		}
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}

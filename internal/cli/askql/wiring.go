package askql

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/askql/askql/internal/config"
	"github.com/askql/askql/internal/explain"
	"github.com/askql/askql/internal/llm"
	"github.com/askql/askql/internal/llm/gemini"
	"github.com/askql/askql/internal/llm/openai"
	"github.com/askql/askql/internal/migrations"
	"github.com/askql/askql/internal/nl2sql"
	"github.com/askql/askql/internal/observability"
	"github.com/askql/askql/internal/query"
	"github.com/askql/askql/internal/query/duckdb"
	"github.com/askql/askql/internal/query/sqldb"
	"github.com/askql/askql/internal/schema"
	"github.com/askql/askql/internal/session"
	"github.com/askql/askql/internal/storage/s3"
)

const shutdownTimeout = 5 * time.Second

type introspectable interface {
	schema.Querier
	Driver() string
}

// openSession builds every collaborator of a session from r.cfg. The
// returned func releases the engine, the generators and the metrics server.
func (r *runner) openSession(ctx context.Context) (*session.Session, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*session.Session, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	logger := observability.NewLogger(r.cfg, r.opts.Stderr)

	engine, err := openEngine(ctx, r.cfg)
	if err != nil {
		return fail(err)
	}
	engineOwned := true
	cleanups = append(cleanups, func() {
		if engineOwned {
			_ = engine.Close()
		}
	})

	schemaCtx, err := loadSchema(ctx, r.cfg, engine)
	if err != nil {
		return fail(err)
	}

	translateGen, err := r.opts.NewGenerator(ctx, r.cfg.AI, r.cfg.AI.Model)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeGenerator(translateGen))
	explainGen := translateGen
	if r.cfg.AI.ExplainModel != r.cfg.AI.Model {
		explainGen, err = r.opts.NewGenerator(ctx, r.cfg.AI, r.cfg.AI.ExplainModel)
		if err != nil {
			return fail(err)
		}
		cleanups = append(cleanups, closeGenerator(explainGen))
	}

	translator, err := nl2sql.NewLLMTranslator(translateGen)
	if err != nil {
		return fail(err)
	}
	explainer, err := explain.NewLLMExplainer(explainGen)
	if err != nil {
		return fail(err)
	}
	executor, err := query.NewExecutor(engine, query.Options{
		Timeout: r.cfg.Query.Timeout,
		MaxRows: r.cfg.Query.MaxRows,
	})
	if err != nil {
		return fail(err)
	}

	if addr := strings.TrimSpace(r.cfg.Observability.MetricsAddr); addr != "" {
		metrics, err := observability.StartMetricsServer(addr, logger)
		if err != nil {
			return fail(fmt.Errorf("start metrics server: %w", err))
		}
		cleanups = append(cleanups, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := metrics.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", slog.Any("error", err))
			}
		})
	}

	sess, err := session.New(session.Dependencies{
		Translator:        translator,
		Executor:          executor,
		Explainer:         explainer,
		Schema:            schemaCtx,
		Logger:            logger,
		Engine:            engine,
		CapabilityTimeout: r.cfg.AI.Timeout,
	})
	if err != nil {
		return fail(err)
	}
	engineOwned = false
	cleanups = append(cleanups, func() {
		if err := sess.Close(); err != nil {
			logger.Warn("closing database failed", slog.Any("error", err))
		}
	})

	logger.Info("session ready",
		slog.String("driver", engine.Driver()),
		slog.String("dialect", schemaCtx.Dialect()),
		slog.Int("tables", len(schemaCtx.TableNames())),
		slog.String("provider", translateGen.Provider()),
		slog.String("model", translateGen.Model()),
	)
	return sess, cleanup, nil
}

// openEngine connects to the configured database. duckdb-parquet reads the
// exported tables from the object store instead of a DSN.
func openEngine(ctx context.Context, cfg config.Config) (query.Engine, error) {
	if cfg.Database.Driver == config.DriverDuckDBParquet {
		store, err := s3.New(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, fmt.Errorf("object store: %w", err)
		}
		engine, err := duckdb.Open(ctx, store, cfg.Parquet.ManifestKey)
		if err != nil {
			return nil, err
		}
		return engine, nil
	}
	engine, err := sqldb.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, cfg.Database.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

// loadSchema builds the schema description. engine is only used for
// introspection and may be nil otherwise.
func loadSchema(ctx context.Context, cfg config.Config, engine introspectable) (*schema.Context, error) {
	switch cfg.Schema.Source {
	case config.SchemaSourceEmbedded:
		ddl, err := migrations.SchemaDDL()
		if err != nil {
			return nil, err
		}
		return schema.FromDDL(cfg.Schema.Dialect, ddl)
	case config.SchemaSourceFile:
		raw, err := os.ReadFile(cfg.Schema.File)
		if err != nil {
			return nil, fmt.Errorf("read schema file: %w", err)
		}
		return schema.FromDDL(cfg.Schema.Dialect, string(raw))
	case config.SchemaSourceIntrospect:
		if engine == nil {
			return nil, fmt.Errorf("introspection needs an open database")
		}
		return schema.Introspect(ctx, engine, engine.Driver())
	default:
		return nil, fmt.Errorf("unsupported schema source %q", cfg.Schema.Source)
	}
}

// NewGenerator builds a generator for the configured provider.
func NewGenerator(ctx context.Context, cfg config.AIConfig, model string) (llm.Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		names := append([]string{"ASKQL_AI_API_KEY"}, config.APIKeyAliases(cfg.Provider)...)
		return nil, fmt.Errorf("missing API key: set %s or pass --api-key", strings.Join(names, ", "))
	}
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := gemini.New(ctx, gemini.Config{
			APIKey:      cfg.APIKey,
			Model:       model,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderOpenAI:
		client, err := openai.New(openai.Config{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}

func closeGenerator(gen llm.Generator) func() {
	return func() {
		if closer, ok := gen.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
}

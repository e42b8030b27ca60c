// Package askql is the askql command line: an interactive chat by default,
// plus one-shot questions, schema printing and demo database seeding.
package askql

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/askql/askql/internal/config"
	"github.com/askql/askql/internal/llm"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// GeneratorFactory builds the text generator for one model.
type GeneratorFactory func(ctx context.Context, cfg config.AIConfig, model string) (llm.Generator, error)

type Options struct {
	// Lookup answers environment variables. Defaults to os.LookupEnv.
	Lookup config.LookupFunc
	// LoadEnvFile loads the --env-file. Defaults to config.LoadDotEnv.
	LoadEnvFile  func(path string) error
	NewGenerator GeneratorFactory
	Stdin        io.Reader
	Stdout       io.Writer
	Stderr       io.Writer
}

type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// errTurnFailed is returned after a failed turn was already rendered.
var errTurnFailed = errors.New("turn failed")

type flags struct {
	envFile string
	apiKey  string
	driver  string
	dsn     string
	model   string
}

type runner struct {
	opts  Options
	flags flags
	cfg   config.Config
}

// Run executes the command line in args and returns the process exit code.
func Run(ctx context.Context, args []string, defaults Options) int {
	opts := withDefaults(defaults)
	r := &runner{opts: opts}
	root := r.rootCommand()
	// cobra falls back to os.Args when given nil.
	root.SetArgs(append([]string{}, args...))

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errTurnFailed):
		return exitFailure
	}
	var usage *usageError
	if errors.As(err, &usage) {
		_, _ = fmt.Fprintf(opts.Stderr, "error: %v\n\n", err)
		_, _ = fmt.Fprint(opts.Stderr, root.UsageString())
		return exitUsage
	}
	_, _ = fmt.Fprintf(opts.Stderr, "error: %v\n", err)
	return exitFailure
}

func withDefaults(opts Options) Options {
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}
	if opts.LoadEnvFile == nil {
		opts.LoadEnvFile = config.LoadDotEnv
	}
	if opts.NewGenerator == nil {
		opts.NewGenerator = NewGenerator
	}
	if opts.Stdin == nil {
		opts.Stdin = strings.NewReader("")
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	return opts
}

func (r *runner) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "askql",
		Short: "Ask questions about a database in plain language",
		Long: `askql translates natural-language questions into read-only SQL, runs them
against the configured database and explains the results. Without a
subcommand it starts an interactive chat.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              noArgs,
		PersistentPreRunE: r.loadConfig,
		RunE:              r.runChat,
	}
	root.SetIn(r.opts.Stdin)
	root.SetOut(r.opts.Stdout)
	root.SetErr(r.opts.Stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	persistent := root.PersistentFlags()
	persistent.StringVar(&r.flags.envFile, "env-file", ".env", "file with KEY=VALUE pairs loaded before the environment is read")
	persistent.StringVar(&r.flags.apiKey, "api-key", "", "API key for the model provider (overrides ASKQL_AI_API_KEY)")
	persistent.StringVar(&r.flags.driver, "driver", "", "database driver: sqlite3, pgx, mysql, duckdb or duckdb-parquet")
	persistent.StringVar(&r.flags.dsn, "dsn", "", "database connection string")
	persistent.StringVar(&r.flags.model, "model", "", "model used to translate questions")

	root.AddCommand(
		r.chatCommand(),
		r.askCommand(),
		r.schemaCommand(),
		r.seedCommand(),
	)
	return root
}

func (r *runner) loadConfig(_ *cobra.Command, _ []string) error {
	if err := r.opts.LoadEnvFile(r.flags.envFile); err != nil {
		return err
	}
	lookup := config.Overlay(r.opts.Lookup, map[string]string{
		"ASKQL_AI_API_KEY": r.flags.apiKey,
		"ASKQL_DB_DRIVER":  r.flags.driver,
		"ASKQL_DB_DSN":     r.flags.dsn,
		"ASKQL_AI_MODEL":   r.flags.model,
	})
	cfg, err := config.Load("askql", lookup)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	r.cfg = cfg
	return nil
}

func (r *runner) chatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat (default)",
		Args:  noArgs,
		RunE:  r.runChat,
	}
}

func (r *runner) runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	sess, closeSession, err := r.openSession(ctx)
	if err != nil {
		return err
	}
	defer closeSession()
	return sess.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

func (r *runner) askCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and exit",
		Args: func(_ *cobra.Command, args []string) error {
			if strings.TrimSpace(strings.Join(args, " ")) == "" {
				return usageErrorf("ask requires a question")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, closeSession, err := r.openSession(ctx)
			if err != nil {
				return err
			}
			defer closeSession()

			report := sess.HandleTurn(ctx, strings.Join(args, " "))
			if err := report.Render(cmd.OutOrStdout()); err != nil {
				return err
			}
			if report.Failed() {
				return errTurnFailed
			}
			return nil
		},
	}
}

func (r *runner) schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the schema description given to the model",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var engine introspectable
			if r.cfg.Schema.Source == config.SchemaSourceIntrospect {
				opened, err := openEngine(ctx, r.cfg)
				if err != nil {
					return err
				}
				defer func() { _ = opened.Close() }()
				engine = opened
			}
			schemaCtx, err := loadSchema(ctx, r.cfg, engine)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), schemaCtx.Text())
			return err
		},
	}
}

func noArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageErrorf("unknown command %q", args[0])
	}
	return nil
}

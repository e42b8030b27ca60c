package askql

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askql/askql/internal/config"
	"github.com/askql/askql/internal/seed"
	"github.com/askql/askql/internal/storage/s3"
)

func (r *runner) seedCommand() *cobra.Command {
	var (
		reset         bool
		exportParquet bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create and fill the ERP demo database",
		Long: `seed applies the bundled ERP schema to the sqlite3 database named by --dsn
and loads the demo dataset. With --export-parquet every table is also written
to the object store as parquet, ready for the duckdb-parquet driver.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if r.cfg.Database.Driver != config.DriverSQLite {
				return fmt.Errorf("seed supports only the %s driver, got %q", config.DriverSQLite, r.cfg.Database.Driver)
			}

			db, err := sql.Open(config.DriverSQLite, r.cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer func() { _ = db.Close() }()
			// Keeps :memory: databases on a single connection.
			db.SetMaxOpenConns(1)

			result, err := seed.Prepare(ctx, db, seed.Options{Reset: reset})
			if errors.Is(err, seed.ErrAlreadySeeded) {
				return fmt.Errorf("%w (use --reset to start over)", err)
			}
			if err != nil {
				return err
			}
			if result.MigrationsRolledBack > 0 {
				_, _ = fmt.Fprintf(out, "rolled back %d migration(s)\n", result.MigrationsRolledBack)
			}
			_, _ = fmt.Fprintf(out, "applied %d migration(s)\n", result.MigrationsApplied)
			tables := seed.TableNames(seed.Generate())
			for _, table := range tables {
				_, _ = fmt.Fprintf(out, "seeded %-20s %d rows\n", table, result.Rows[table])
			}

			if !exportParquet {
				return nil
			}
			store, err := s3.New(ctx, r.cfg.ObjectStore)
			if err != nil {
				return fmt.Errorf("object store: %w", err)
			}
			entries, err := seed.ExportParquet(ctx, db, store, r.cfg.Parquet.ManifestKey, tables)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "exported %d table(s) to bucket %q, manifest %q\n",
				len(entries), r.cfg.ObjectStore.Bucket, r.cfg.Parquet.ManifestKey)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "roll back the schema and reseed from scratch")
	cmd.Flags().BoolVar(&exportParquet, "export-parquet", false, "also export every table as parquet to the object store")
	return cmd
}

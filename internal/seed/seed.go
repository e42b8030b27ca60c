// Package seed creates the ERP demo database: schema through the migration
// runner, then a fixed dataset, optionally exported as parquet.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/askql/askql/internal/migrations"
)

// ErrAlreadySeeded is returned when the target already holds demo data.
var ErrAlreadySeeded = errors.New("database already contains seed data")

type Options struct {
	// Reset rolls every migration back before applying them again.
	Reset bool
}

// Result reports what Prepare did.
type Result struct {
	MigrationsApplied    int
	MigrationsRolledBack int
	Rows                 map[string]int
}

// Prepare migrates db and loads the dataset in one transaction.
func Prepare(ctx context.Context, db *sql.DB, opts Options) (Result, error) {
	runner := migrations.NewRunner()
	var result Result
	if opts.Reset {
		applied, err := runner.Applied(ctx, db)
		if err != nil {
			return result, err
		}
		if len(applied) > 0 {
			rolled, err := runner.Down(ctx, db, len(applied))
			result.MigrationsRolledBack = rolled
			if err != nil {
				return result, err
			}
		}
	}

	applied, err := runner.Up(ctx, db, 0)
	result.MigrationsApplied = applied
	if err != nil {
		return result, err
	}

	rows, err := Seed(ctx, db, Generate())
	result.Rows = rows
	return result, err
}

// Seed inserts dataset into an empty schema. Nothing is written when any
// insert fails.
func Seed(ctx context.Context, db *sql.DB, dataset Dataset) (map[string]int, error) {
	if len(dataset.Tables) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	var existing int
	first := dataset.Tables[0].Name
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+quoteIdent(first)).Scan(&existing); err != nil {
		return nil, fmt.Errorf("check %s: %w", first, err)
	}
	if existing > 0 {
		return nil, ErrAlreadySeeded
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	counts := make(map[string]int, len(dataset.Tables))
	for _, table := range dataset.Tables {
		if err := insertTable(ctx, tx, table); err != nil {
			return nil, err
		}
		counts[table.Name] = len(table.Rows)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit seed: %w", err)
	}
	return counts, nil
}

func insertTable(ctx context.Context, tx *sql.Tx, table Table) error {
	columns := make([]string, len(table.Columns))
	placeholders := make([]string, len(table.Columns))
	for i, column := range table.Columns {
		columns[i] = quoteIdent(column)
		placeholders[i] = "?"
	}
	statement := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table.Name), strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	stmt, err := tx.PrepareContext(ctx, statement)
	if err != nil {
		return fmt.Errorf("prepare insert into %s: %w", table.Name, err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return fmt.Errorf("%s row %d has %d values for %d columns", table.Name, i, len(row), len(table.Columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert into %s row %d: %w", table.Name, i, err)
		}
	}
	return nil
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

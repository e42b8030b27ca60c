package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/askql/askql/internal/config"
)

// Querier is the read side of *sql.DB, *sql.Conn and the query engines.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ignoredTables never reach the prompt.
var ignoredTables = map[string]struct{}{
	"askql_schema_migrations": {},
}

// Introspect reads table and column metadata from a live database and renders
// it in the compact text layout.
func Introspect(ctx context.Context, db Querier, driver string) (*Context, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	var (
		tables []Table
		err    error
	)
	switch driver {
	case config.DriverSQLite:
		tables, err = introspectSQLite(ctx, db)
	case config.DriverPostgres, config.DriverDuckDB, config.DriverDuckDBParquet:
		tables, err = introspectInformationSchema(ctx, db, "current_schema()")
	case config.DriverMySQL:
		tables, err = introspectInformationSchema(ctx, db, "DATABASE()")
	default:
		return nil, fmt.Errorf("introspection not supported for driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("database has no tables to describe")
	}
	return New(config.DialectForDriver(driver), FormatString(tables), tables)
}

func introspectSQLite(ctx context.Context, db Querier) ([]Table, error) {
	names, err := queryStrings(ctx, db, `SELECT name FROM sqlite_master
WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sqlite tables: %w", err)
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		if _, skip := ignoredTables[name]; skip {
			continue
		}
		table, err := sqliteTable(ctx, db, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func sqliteTable(ctx context.Context, db Querier, name string) (Table, error) {
	table := Table{Name: name}

	rows, err := db.QueryContext(ctx, `SELECT name, type, "notnull", pk FROM pragma_table_info(?) ORDER BY cid`, name)
	if err != nil {
		return Table{}, fmt.Errorf("read columns of %s: %w", name, err)
	}
	type pkColumn struct {
		name  string
		order int
	}
	var pks []pkColumn
	for rows.Next() {
		var (
			col     Column
			notNull int
			pk      int
		)
		if err := rows.Scan(&col.Name, &col.Type, &notNull, &pk); err != nil {
			_ = rows.Close()
			return Table{}, fmt.Errorf("scan column of %s: %w", name, err)
		}
		col.Type = strings.ToUpper(col.Type)
		col.Nullable = notNull == 0 && pk == 0
		if pk > 0 {
			pks = append(pks, pkColumn{name: col.Name, order: pk})
		}
		table.Columns = append(table.Columns, col)
	}
	if err := closeRows(rows); err != nil {
		return Table{}, fmt.Errorf("read columns of %s: %w", name, err)
	}
	for order := 1; order <= len(pks); order++ {
		for _, pk := range pks {
			if pk.order == order {
				table.PrimaryKey = append(table.PrimaryKey, pk.name)
			}
		}
	}

	rows, err = db.QueryContext(ctx, `SELECT "from", "table", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`, name)
	if err != nil {
		return Table{}, fmt.Errorf("read foreign keys of %s: %w", name, err)
	}
	for rows.Next() {
		var (
			rel Relation
			to  sql.NullString
		)
		if err := rows.Scan(&rel.SourceColumn, &rel.TargetTable, &to); err != nil {
			_ = rows.Close()
			return Table{}, fmt.Errorf("scan foreign key of %s: %w", name, err)
		}
		rel.TargetColumn = to.String
		table.Relations = append(table.Relations, rel)
	}
	if err := closeRows(rows); err != nil {
		return Table{}, fmt.Errorf("read foreign keys of %s: %w", name, err)
	}
	return table, nil
}

func introspectInformationSchema(ctx context.Context, db Querier, schemaExpr string) ([]Table, error) {
	query := fmt.Sprintf(`SELECT table_name, column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = %s
ORDER BY table_name, ordinal_position`, schemaExpr)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read information_schema.columns: %w", err)
	}

	var tables []Table
	index := map[string]int{}
	for rows.Next() {
		var (
			tableName string
			col       Column
			nullable  string
		)
		if err := rows.Scan(&tableName, &col.Name, &col.Type, &nullable); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan information_schema.columns: %w", err)
		}
		if _, skip := ignoredTables[tableName]; skip {
			continue
		}
		col.Type = strings.ToUpper(col.Type)
		col.Nullable = strings.EqualFold(nullable, "YES")
		i, ok := index[tableName]
		if !ok {
			i = len(tables)
			index[tableName] = i
			tables = append(tables, Table{Name: tableName})
		}
		tables[i].Columns = append(tables[i].Columns, col)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("read information_schema.columns: %w", err)
	}
	return tables, nil
}

func queryStrings(ctx context.Context, db Querier, query string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	var out []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, value)
	}
	return out, closeRows(rows)
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	return rows.Close()
}

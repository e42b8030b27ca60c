package schema

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"

	"github.com/askql/askql/internal/config"
)

func TestIntrospectSQLite(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	for _, stmt := range []string{
		`CREATE TABLE Sites (SiteId INTEGER PRIMARY KEY, SiteCode TEXT NOT NULL)`,
		`CREATE TABLE Locations (LocationId INTEGER PRIMARY KEY, SiteId INTEGER REFERENCES Sites(SiteId), Code TEXT)`,
		`CREATE TABLE askql_schema_migrations (version INTEGER PRIMARY KEY)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}

	schemaCtx, err := Introspect(ctx, db, config.DriverSQLite)
	if err != nil {
		t.Fatalf("Introspect() error = %v", err)
	}
	if schemaCtx.Dialect() != "SQLite" {
		t.Fatalf("Dialect() = %q", schemaCtx.Dialect())
	}
	if got := strings.Join(schemaCtx.TableNames(), ","); got != "Locations,Sites" {
		t.Fatalf("TableNames() = %q", got)
	}
	text := schemaCtx.Text()
	for _, want := range []string{
		"TABLE Sites (PK: SiteId)",
		"  SiteCode: TEXT NOT NULL",
		"    SiteId -> Sites.SiteId",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("Text() missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "askql_schema_migrations") {
		t.Fatalf("Text() should not describe the migrations table:\n%s", text)
	}
}

func TestIntrospectInformationSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery(`FROM information_schema.columns\s+WHERE table_schema = current_schema\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type", "is_nullable"}).
			AddRow("customers", "customer_id", "integer", "NO").
			AddRow("customers", "name", "text", "YES").
			AddRow("items", "item_id", "integer", "NO"))

	schemaCtx, err := Introspect(context.Background(), db, config.DriverPostgres)
	if err != nil {
		t.Fatalf("Introspect() error = %v", err)
	}
	if schemaCtx.Dialect() != "PostgreSQL" {
		t.Fatalf("Dialect() = %q", schemaCtx.Dialect())
	}
	want := "TABLE customers\n  customer_id: INTEGER NOT NULL\n  name: TEXT\n\nTABLE items\n  item_id: INTEGER NOT NULL"
	if schemaCtx.Text() != want {
		t.Fatalf("Text() =\n%s\nwant\n%s", schemaCtx.Text(), want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestIntrospectMySQLUsesDatabaseFunction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery(`WHERE table_schema = DATABASE\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type", "is_nullable"}))

	if _, err := Introspect(context.Background(), db, config.DriverMySQL); err == nil {
		t.Fatal("expected error for a database without tables")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestIntrospectRejectsUnknownDriver(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := Introspect(context.Background(), db, "oracle"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

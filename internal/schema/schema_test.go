package schema

import (
	"strings"
	"testing"
)

const sampleDDL = `
-- inventory
CREATE TABLE IF NOT EXISTS Sites (
    SiteId INTEGER PRIMARY KEY AUTOINCREMENT,
    SiteCode TEXT NOT NULL UNIQUE,
    SiteName TEXT NOT NULL,
    CreatedAt DATETIME DEFAULT (datetime('now'))
);

CREATE TABLE Locations (
    LocationId INTEGER PRIMARY KEY,
    SiteId INTEGER NOT NULL,
    LocationCode TEXT,
    Notes TEXT DEFAULT 'a, b',
    FOREIGN KEY (SiteId) REFERENCES Sites(SiteId)
);

CREATE TABLE OrderLines (
    OrderId INTEGER NOT NULL,
    LineNumber INTEGER NOT NULL,
    Quantity DECIMAL(12, 2),
    PRIMARY KEY (OrderId, LineNumber)
);
`

func TestFromDDLParsesTables(t *testing.T) {
	ctx, err := FromDDL("SQLite", sampleDDL)
	if err != nil {
		t.Fatalf("FromDDL() error = %v", err)
	}
	if ctx.Dialect() != "SQLite" {
		t.Fatalf("Dialect() = %q", ctx.Dialect())
	}
	if ctx.Text() != strings.TrimSpace(sampleDDL) {
		t.Fatalf("Text() should be the DDL verbatim, got %q", ctx.Text())
	}
	names := ctx.TableNames()
	if strings.Join(names, ",") != "Sites,Locations,OrderLines" {
		t.Fatalf("TableNames() = %v", names)
	}

	tables := ctx.Tables()
	sites := tables[0]
	if len(sites.Columns) != 4 {
		t.Fatalf("Sites columns = %+v", sites.Columns)
	}
	if sites.PrimaryKey[0] != "SiteId" || sites.Columns[0].Nullable {
		t.Fatalf("Sites primary key = %v, first column = %+v", sites.PrimaryKey, sites.Columns[0])
	}
	if sites.Columns[1].Type != "TEXT" || sites.Columns[1].Nullable {
		t.Fatalf("SiteCode = %+v", sites.Columns[1])
	}
	if !sites.Columns[3].Nullable {
		t.Fatalf("CreatedAt should be nullable: %+v", sites.Columns[3])
	}

	locations := tables[1]
	if len(locations.Columns) != 4 {
		t.Fatalf("Locations columns = %+v", locations.Columns)
	}
	if len(locations.Relations) != 1 {
		t.Fatalf("Locations relations = %+v", locations.Relations)
	}
	rel := locations.Relations[0]
	if rel.SourceColumn != "SiteId" || rel.TargetTable != "Sites" || rel.TargetColumn != "SiteId" {
		t.Fatalf("relation = %+v", rel)
	}

	lines := tables[2]
	if strings.Join(lines.PrimaryKey, ",") != "OrderId,LineNumber" {
		t.Fatalf("OrderLines primary key = %v", lines.PrimaryKey)
	}
	if lines.Columns[2].Type != "DECIMAL(12, 2)" {
		t.Fatalf("Quantity type = %q", lines.Columns[2].Type)
	}
}

func TestParseDDLKeepsColumnsNamedLikeConstraints(t *testing.T) {
	tables, err := ParseDDL(`CREATE TABLE Items (
    ItemId INTEGER,
    UniqueCode TEXT NOT NULL,
    CheckDate DATE,
    ConstraintNote TEXT,
    PRIMARY KEY(ItemId),
    UNIQUE (UniqueCode),
    CONSTRAINT chk CHECK (ItemId > 0)
);`)
	if err != nil {
		t.Fatalf("ParseDDL() error = %v", err)
	}
	var names []string
	for _, col := range tables[0].Columns {
		names = append(names, col.Name)
	}
	if strings.Join(names, ",") != "ItemId,UniqueCode,CheckDate,ConstraintNote" {
		t.Fatalf("columns = %v", names)
	}
	if strings.Join(tables[0].PrimaryKey, ",") != "ItemId" {
		t.Fatalf("PrimaryKey = %v", tables[0].PrimaryKey)
	}
}

func TestFromDDLRejectsInputWithoutTables(t *testing.T) {
	if _, err := FromDDL("SQLite", "SELECT 1;"); err == nil {
		t.Fatal("expected error for DDL without CREATE TABLE")
	}
	if _, err := FromDDL("SQLite", "CREATE TABLE broken (id INTEGER"); err == nil {
		t.Fatal("expected error for unbalanced DDL")
	}
}

func TestNewRequiresText(t *testing.T) {
	if _, err := New("SQLite", "   ", nil); err == nil {
		t.Fatal("expected error for empty schema text")
	}
	ctx, err := New("", "TABLE t", nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if ctx.Dialect() != "SQL" {
		t.Fatalf("Dialect() = %q", ctx.Dialect())
	}
}

func TestTablesReturnsCopy(t *testing.T) {
	ctx, err := FromDDL("SQLite", sampleDDL)
	if err != nil {
		t.Fatalf("FromDDL() error = %v", err)
	}
	tables := ctx.Tables()
	tables[0].Name = "Mutated"
	tables[0].Columns[0].Name = "Mutated"

	again := ctx.Tables()
	if again[0].Name != "Sites" || again[0].Columns[0].Name != "SiteId" {
		t.Fatalf("context was mutated through Tables(): %+v", again[0])
	}
}

func TestFormatString(t *testing.T) {
	got := FormatString([]Table{
		{
			Name:       "Items",
			PrimaryKey: []string{"ItemId"},
			Columns: []Column{
				{Name: "ItemId", Type: "INTEGER"},
				{Name: "Description", Type: "TEXT", Nullable: true},
			},
		},
		{
			Name:      "Assets",
			Columns:   []Column{{Name: "ItemId", Type: "INTEGER", Nullable: true}},
			Relations: []Relation{{SourceColumn: "ItemId", TargetTable: "Items", TargetColumn: "ItemId"}},
		},
	})
	want := `TABLE Items (PK: ItemId)
  ItemId: INTEGER NOT NULL
  Description: TEXT

TABLE Assets
  ItemId: INTEGER
  RELATIONS:
    ItemId -> Items.ItemId
`
	if got != want {
		t.Fatalf("FormatString() =\n%s\nwant\n%s", got, want)
	}
}

// Package schema holds the SchemaContext: the fixed description of tables and
// columns that every translation prompt is conditioned on. A Context never
// changes after construction.
package schema

import (
	"fmt"
	"strings"
)

type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// Relation is a foreign key from SourceColumn to TargetTable.TargetColumn.
type Relation struct {
	SourceColumn string
	TargetTable  string
	TargetColumn string
}

type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey []string
	Relations  []Relation
}

type Context struct {
	dialect string
	text    string
	tables  []Table
}

// New builds a Context. text is what prompts embed; tables is the structured
// view of the same schema and may be empty when only text is known.
func New(dialect, text string, tables []Table) (*Context, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("schema text is required")
	}
	dialect = strings.TrimSpace(dialect)
	if dialect == "" {
		dialect = "SQL"
	}
	return &Context{dialect: dialect, text: text, tables: copyTables(tables)}, nil
}

func (c *Context) Dialect() string { return c.dialect }

func (c *Context) Text() string { return c.text }

// Tables returns a copy; callers cannot mutate the context through it.
func (c *Context) Tables() []Table { return copyTables(c.tables) }

func (c *Context) TableNames() []string {
	names := make([]string, 0, len(c.tables))
	for _, table := range c.tables {
		names = append(names, table.Name)
	}
	return names
}

func copyTables(tables []Table) []Table {
	if tables == nil {
		return nil
	}
	out := make([]Table, len(tables))
	for i, table := range tables {
		out[i] = Table{
			Name:       table.Name,
			Columns:    append([]Column(nil), table.Columns...),
			PrimaryKey: append([]string(nil), table.PrimaryKey...),
			Relations:  append([]Relation(nil), table.Relations...),
		}
	}
	return out
}

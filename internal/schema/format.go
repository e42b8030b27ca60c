package schema

import (
	"fmt"
	"io"
	"strings"
)

// Format renders tables in the compact layout used for introspected schemas.
func Format(w io.Writer, tables []Table) error {
	for i, table := range tables {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := formatTable(w, table); err != nil {
			return err
		}
	}
	return nil
}

func FormatString(tables []Table) string {
	var b strings.Builder
	_ = Format(&b, tables)
	return b.String()
}

func formatTable(w io.Writer, table Table) error {
	pk := ""
	if len(table.PrimaryKey) > 0 {
		pk = fmt.Sprintf(" (PK: %s)", strings.Join(table.PrimaryKey, ", "))
	}
	if _, err := fmt.Fprintf(w, "TABLE %s%s\n", table.Name, pk); err != nil {
		return err
	}
	for _, col := range table.Columns {
		if _, err := fmt.Fprintf(w, "  %s\n", formatColumn(col)); err != nil {
			return err
		}
	}
	if len(table.Relations) > 0 {
		if _, err := fmt.Fprintln(w, "  RELATIONS:"); err != nil {
			return err
		}
		for _, rel := range table.Relations {
			if _, err := fmt.Fprintf(w, "    %s -> %s.%s\n", rel.SourceColumn, rel.TargetTable, rel.TargetColumn); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatColumn(col Column) string {
	parts := []string{col.Name + ":"}
	if col.Type != "" {
		parts = append(parts, col.Type)
	}
	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	return strings.Join(parts, " ")
}

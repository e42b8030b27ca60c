package schema

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	createTablePattern = regexp.MustCompile(`(?i)\bCREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([` + "`" + `"\[]?[A-Za-z_][A-Za-z0-9_]*[` + "`" + `"\]]?)\s*\(`)
	foreignKeyPattern  = regexp.MustCompile(`(?i)FOREIGN\s+KEY\s*\(([^)]*)\)\s*REFERENCES\s+([A-Za-z0-9_"` + "`" + `\[\]]+)\s*\(([^)]*)\)`)
	primaryKeyPattern  = regexp.MustCompile(`(?i)PRIMARY\s+KEY\s*\(([^)]*)\)`)
	lineCommentPattern = regexp.MustCompile(`--[^\n]*`)
)

var constraintPrefixes = []string{"CONSTRAINT", "PRIMARY KEY", "FOREIGN KEY", "UNIQUE", "CHECK"}

// FromDDL builds a Context whose prompt text is the DDL itself, the way the
// schema was presented to the translator when it was hand-written.
func FromDDL(dialect, ddl string) (*Context, error) {
	tables, err := ParseDDL(ddl)
	if err != nil {
		return nil, err
	}
	return New(dialect, ddl, tables)
}

// ParseDDL extracts tables, columns, primary keys and foreign keys from
// CREATE TABLE statements. Anything else in the script is ignored.
func ParseDDL(ddl string) ([]Table, error) {
	cleaned := lineCommentPattern.ReplaceAllString(ddl, "")
	var tables []Table
	offset := 0
	for {
		loc := createTablePattern.FindStringSubmatchIndex(cleaned[offset:])
		if loc == nil {
			break
		}
		name := unquoteIdent(cleaned[offset+loc[2] : offset+loc[3]])
		bodyStart := offset + loc[1]
		bodyEnd, err := matchingParen(cleaned, bodyStart)
		if err != nil {
			return nil, fmt.Errorf("parse table %s: %w", name, err)
		}
		tables = append(tables, parseTableBody(name, cleaned[bodyStart:bodyEnd]))
		offset = bodyEnd + 1
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no CREATE TABLE statements found")
	}
	return tables, nil
}

// matchingParen returns the index of the ')' closing the group that starts
// right before start.
func matchingParen(text string, start int) (int, error) {
	depth := 1
	var quote byte
	for i := start; i < len(text); i++ {
		ch := text[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unbalanced parentheses")
}

func parseTableBody(name, body string) Table {
	table := Table{Name: name}
	for _, item := range splitTopLevel(body) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		upper := strings.ToUpper(item)
		if isConstraintClause(upper) {
			if m := foreignKeyPattern.FindStringSubmatch(item); m != nil {
				sources := splitIdents(m[1])
				targets := splitIdents(m[3])
				for i, source := range sources {
					rel := Relation{SourceColumn: source, TargetTable: unquoteIdent(m[2])}
					if i < len(targets) {
						rel.TargetColumn = targets[i]
					}
					table.Relations = append(table.Relations, rel)
				}
			} else if m := primaryKeyPattern.FindStringSubmatch(item); m != nil {
				table.PrimaryKey = append(table.PrimaryKey, splitIdents(m[1])...)
			}
			continue
		}

		fields := strings.Fields(item)
		col := Column{Name: unquoteIdent(fields[0]), Nullable: true}
		col.Type = columnType(fields[1:])
		if strings.Contains(upper, "NOT NULL") {
			col.Nullable = false
		}
		if strings.Contains(upper, "PRIMARY KEY") {
			table.PrimaryKey = append(table.PrimaryKey, col.Name)
			col.Nullable = false
		}
		table.Columns = append(table.Columns, col)
	}
	return table
}

// columnType joins the words after the column name up to the first
// constraint keyword, so DECIMAL(12, 2) survives intact.
func columnType(words []string) string {
	var parts []string
	for _, word := range words {
		if isConstraintWord(word) {
			break
		}
		parts = append(parts, word)
	}
	return strings.ToUpper(strings.Join(parts, " "))
}

func splitTopLevel(body string) []string {
	var parts []string
	depth := 0
	var quote byte
	last := 0
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[last:i])
				last = i + 1
			}
		}
	}
	return append(parts, body[last:])
}

func splitIdents(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if ident := unquoteIdent(strings.TrimSpace(part)); ident != "" {
			out = append(out, ident)
		}
	}
	return out
}

func unquoteIdent(value string) string {
	return strings.Trim(strings.TrimSpace(value), "\"`[]")
}

func isConstraintWord(word string) bool {
	switch strings.ToUpper(word) {
	case "PRIMARY", "NOT", "NULL", "UNIQUE", "DEFAULT", "CHECK", "REFERENCES", "CONSTRAINT",
		"COLLATE", "AUTOINCREMENT", "AUTO_INCREMENT", "GENERATED":
		return true
	}
	return false
}

// isConstraintClause reports whether a table body item starts with one of
// the constraint keywords as a whole word, so columns such as UniqueCode or
// CheckDate stay columns.
func isConstraintClause(upper string) bool {
	for _, keyword := range constraintPrefixes {
		rest, ok := strings.CutPrefix(upper, keyword)
		if !ok {
			continue
		}
		if rest == "" || rest[0] == '(' || unicode.IsSpace(rune(rest[0])) {
			return true
		}
	}
	return false
}

package query

import (
	"errors"
	"strings"
	"testing"
)

func TestGuardAllowsReadStatements(t *testing.T) {
	allowed := []string{
		"SELECT COUNT(*) FROM Customers;",
		"  select * from Items  ;; ",
		"WITH recent AS (SELECT * FROM Bills) SELECT * FROM recent",
		"VALUES (1), (2)",
		"SELECT 'DROP TABLE Customers; DELETE' AS note",
		`SELECT "Update" FROM "Insert"`,
		"SELECT REPLACE(Name, 'a', 'b') FROM Customers",
		"-- drop everything\nSELECT 1",
		"/* DELETE */ SELECT 1 /* ; */",
		"SELECT 'it''s; fine'",
		"SELECT UpdatedAt, CreatedBy FROM Assets",
	}
	var guard Guard
	for _, statement := range allowed {
		if err := guard.Check(statement); err != nil {
			t.Fatalf("Check(%q) error = %v", statement, err)
		}
	}
}

func TestGuardRejectsNonReadStatements(t *testing.T) {
	tests := map[string]string{
		"":                                      "empty",
		"  ;  ":                                 "empty",
		"-- only a comment":                     "empty",
		"DROP TABLE Customers":                  "only SELECT",
		"DELETE FROM Customers":                 "only SELECT",
		"REPLACE INTO Customers VALUES (1)":     "only SELECT",
		"PRAGMA table_info(Customers)":          "only SELECT",
		"SELECT 1; DROP TABLE Customers":        "multiple statements",
		"SELECT 1; SELECT 2":                    "multiple statements",
		"SELECT * INTO backup FROM Customers":   "INTO",
		"WITH x AS (DELETE FROM t) SELECT 1":    "DELETE",
		"SELECT 'unterminated":                  "unterminated",
		"SELECT 1 /* open comment":              "unterminated",
		"Sure! Here is the query you asked for": "only SELECT",
	}
	var guard Guard
	for statement, reason := range tests {
		err := guard.Check(statement)
		var forbidden *ForbiddenStatementError
		if !errors.As(err, &forbidden) {
			t.Fatalf("Check(%q) error = %v, want ForbiddenStatementError", statement, err)
		}
		if forbidden.Statement != statement {
			t.Fatalf("Statement = %q, want %q", forbidden.Statement, statement)
		}
		if !strings.Contains(forbidden.Reason, reason) {
			t.Fatalf("Check(%q) reason = %q, want it to mention %q", statement, forbidden.Reason, reason)
		}
	}
}

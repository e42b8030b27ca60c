// Package query runs generated statements against the relational engine and
// turns whatever happens into an Outcome.
package query

import (
	"context"
	"database/sql"
	"time"
)

// Engine is a relational engine held open for the whole session.
type Engine interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Driver() string
	Close() error
}

// Outcome is either Rows (Err == nil) or a classified failure
// (*ForbiddenStatementError or *ExecutionError).
type Outcome struct {
	Columns   []string
	Rows      [][]any
	Truncated bool
	Duration  time.Duration
	Err       error
}

func (o Outcome) Failed() bool { return o.Err != nil }

// HasRows reports whether the statement succeeded with at least one row.
func (o Outcome) HasRows() bool { return o.Err == nil && len(o.Rows) > 0 }

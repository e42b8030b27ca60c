package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Options struct {
	// Timeout bounds one statement. Zero disables it.
	Timeout time.Duration
	// MaxRows caps how many rows are kept. Zero keeps all of them.
	MaxRows int
}

type Executor struct {
	engine  Engine
	guard   Guard
	timeout time.Duration
	maxRows int
}

func NewExecutor(engine Engine, opts Options) (*Executor, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if opts.MaxRows < 0 {
		return nil, fmt.Errorf("max rows must be >= 0")
	}
	return &Executor{engine: engine, timeout: opts.Timeout, maxRows: opts.MaxRows}, nil
}

// Execute checks the statement and, when it is a single read, runs it once.
// It never returns a Go error: every failure is carried in Outcome.Err.
func (e *Executor) Execute(ctx context.Context, statement string) Outcome {
	statement = strings.TrimSpace(statement)
	if err := e.guard.Check(statement); err != nil {
		return Outcome{Err: err}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	outcome, err := e.run(ctx, statement)
	outcome.Duration = time.Since(start)
	if err != nil {
		if e.timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("query timed out after %s", e.timeout)
		}
		return Outcome{Duration: outcome.Duration, Err: &ExecutionError{Statement: statement, Err: err}}
	}
	return outcome
}

func (e *Executor) run(ctx context.Context, statement string) (Outcome, error) {
	rows, err := e.engine.QueryContext(ctx, statement)
	if err != nil {
		return Outcome{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Columns: columns, Rows: make([][]any, 0)}
	for rows.Next() {
		if e.maxRows > 0 && len(outcome.Rows) >= e.maxRows {
			outcome.Truncated = true
			break
		}
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Outcome{}, err
		}
		outcome.Rows = append(outcome.Rows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

package session

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/askql/askql/internal/query"
)

const (
	Greeting         = "Hello! I'm your assistant. How can I help you today?"
	InputPrompt      = "You: "
	EmptyInputNotice = "Please enter a valid question."
	LongInputNotice  = "That question is too long. Please ask a shorter one."
)

// Report is what one call to HandleTurn shows the user. Err is set only for
// input that was rejected before a turn started.
type Report struct {
	Err  error
	Turn Turn
}

// Failed reports whether the turn ended without a result from the engine.
func (r Report) Failed() bool {
	return r.Err != nil || !r.Turn.Succeeded()
}

func (r Report) Render(w io.Writer) error {
	p := &printer{w: w}
	if errors.Is(r.Err, ErrEmptyInput) {
		p.line(EmptyInputNotice)
		return p.err
	}
	if errors.Is(r.Err, ErrLineTooLong) {
		p.line(LongInputNotice)
		return p.err
	}
	if r.Err != nil {
		p.line("Error: " + r.Err.Error())
		return p.err
	}

	turn := r.Turn
	var translationErr *TranslationError
	if errors.As(turn.Failure, &translationErr) {
		p.line("Translation failed: " + translationErr.Error())
		p.line("")
		return p.err
	}

	p.line("SQL Query: " + turn.Statement)

	var forbidden *query.ForbiddenStatementError
	switch {
	case errors.As(turn.Failure, &forbidden):
		p.line("Rejected: " + forbidden.Reason)
	case turn.Failure != nil:
		p.line("SQL Error: " + turn.Failure.Error())
	default:
		p.line("Results:")
		p.rows(turn.Outcome)
		p.line("")
		if turn.ExplanationErr != nil {
			p.line("Explanation unavailable: " + turn.ExplanationErr.Error())
		} else {
			p.line("Explanation:")
			p.line(turn.Explanation)
		}
	}
	p.line("")
	return p.err
}

// printer keeps the first write error so Render reads top to bottom.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(text string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, text)
}

func (p *printer) rows(outcome query.Outcome) {
	if p.err != nil || len(outcome.Rows) == 0 {
		return
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	if len(outcome.Columns) > 0 {
		_, p.err = fmt.Fprintln(tw, strings.Join(outcome.Columns, "\t"))
	}
	for _, row := range outcome.Rows {
		if p.err != nil {
			return
		}
		cells := make([]string, len(row))
		for i, value := range row {
			cells[i] = displayValue(value)
		}
		_, p.err = fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if p.err == nil {
		p.err = tw.Flush()
	}
	if outcome.Truncated {
		p.line(fmt.Sprintf("(showing the first %d rows)", len(outcome.Rows)))
	}
}

func displayValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(typed)
	default:
		return fmt.Sprint(typed)
	}
}

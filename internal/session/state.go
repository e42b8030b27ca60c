package session

import (
	"github.com/askql/askql/internal/nl2sql"
	"github.com/askql/askql/internal/query"
)

// Turn is one question and everything that came of it. A turn is appended to
// the history only once it is complete and is never changed afterwards.
type Turn struct {
	ID        string
	Question  string
	Statement string
	Outcome   query.Outcome
	// Explanation is the model's prose, or the empty-result message.
	Explanation string
	// Failure is a *TranslationError, *query.ForbiddenStatementError or
	// *query.ExecutionError. Nil when the statement ran.
	Failure error
	// ExplanationErr is set when rows came back but could not be explained.
	ExplanationErr error
}

func (t Turn) Succeeded() bool { return t.Failure == nil }

// history is append-only; insertion order is conversation order.
type history struct {
	turns []Turn
}

func (h *history) append(turn Turn) {
	h.turns = append(h.turns, cloneTurn(turn))
}

func (h *history) snapshot() []Turn {
	out := make([]Turn, len(h.turns))
	for i, turn := range h.turns {
		out[i] = cloneTurn(turn)
	}
	return out
}

// exchanges is what the translator sees of earlier turns.
func (h *history) exchanges() []nl2sql.Exchange {
	out := make([]nl2sql.Exchange, 0, len(h.turns))
	for _, turn := range h.turns {
		if turn.Statement == "" {
			continue
		}
		out = append(out, nl2sql.Exchange{Question: turn.Question, SQL: turn.Statement})
	}
	return out
}

func cloneTurn(turn Turn) Turn {
	turn.Outcome.Columns = append([]string(nil), turn.Outcome.Columns...)
	if turn.Outcome.Rows != nil {
		rows := make([][]any, len(turn.Outcome.Rows))
		for i, row := range turn.Outcome.Rows {
			rows[i] = append([]any(nil), row...)
		}
		turn.Outcome.Rows = rows
	}
	return turn
}

// Package session drives the question, statement, rows, explanation cycle
// and keeps the conversation the translator is conditioned on.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/askql/askql/internal/explain"
	"github.com/askql/askql/internal/nl2sql"
	"github.com/askql/askql/internal/observability"
	"github.com/askql/askql/internal/query"
	"github.com/askql/askql/internal/schema"
)

const (
	resultOK               = "ok"
	resultEmpty            = "empty"
	resultTranslationError = "translation_error"
	resultForbidden        = "forbidden"
	resultExecutionError   = "execution_error"
	resultExplanationError = "explanation_error"
)

// Executor runs one statement and classifies the result.
type Executor interface {
	Execute(ctx context.Context, statement string) query.Outcome
}

type Dependencies struct {
	Translator nl2sql.Translator
	Executor   Executor
	Explainer  explain.Explainer
	Schema     *schema.Context
	Logger     *slog.Logger
	// Engine is released by Close. Optional.
	Engine io.Closer
	// CapabilityTimeout bounds each translation and explanation call.
	// Zero disables it.
	CapabilityTimeout time.Duration
}

// Session owns the conversation and the engine handle. Turns are handled
// one at a time.
type Session struct {
	translator        nl2sql.Translator
	executor          Executor
	explainer         explain.Explainer
	schema            *schema.Context
	logger            *slog.Logger
	engine            io.Closer
	capabilityTimeout time.Duration

	mu      sync.Mutex
	history history

	closeOnce sync.Once
	closeErr  error
}

func New(deps Dependencies) (*Session, error) {
	if deps.Translator == nil {
		return nil, fmt.Errorf("translator is required")
	}
	if deps.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if deps.Explainer == nil {
		return nil, fmt.Errorf("explainer is required")
	}
	if deps.Schema == nil {
		return nil, fmt.Errorf("schema is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		translator:        deps.Translator,
		executor:          deps.Executor,
		explainer:         deps.Explainer,
		schema:            deps.Schema,
		logger:            logger,
		engine:            deps.Engine,
		capabilityTimeout: deps.CapabilityTimeout,
	}, nil
}

// HandleTurn answers one line of input. Every failure is reported in the
// returned Report; none of them ends the session.
func (s *Session) HandleTurn(ctx context.Context, raw string) Report {
	question := strings.TrimSpace(raw)
	if question == "" {
		return Report{Err: ErrEmptyInput}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turn := Turn{ID: observability.NewTurnID(), Question: question}
	ctx = observability.ContextWithTurnID(ctx, turn.ID)
	logger := s.logger.With(slog.String("turn_id", turn.ID))
	start := time.Now()

	result := s.runTurn(ctx, logger, &turn)
	s.history.append(turn)
	observability.ObserveTurn(result)

	attrs := []any{
		slog.String("result", result),
		slog.Duration("duration", time.Since(start)),
	}
	if turn.Statement != "" {
		attrs = append(attrs, slog.Int("rows", len(turn.Outcome.Rows)))
	}
	if !turn.Succeeded() {
		attrs = append(attrs, slog.String("error", turn.Failure.Error()))
		logger.Warn("turn failed", attrs...)
	} else {
		logger.Info("turn completed", attrs...)
	}
	return Report{Turn: cloneTurn(turn)}
}

func (s *Session) runTurn(ctx context.Context, logger *slog.Logger, turn *Turn) string {
	translated, err := s.translate(ctx, turn.Question)
	if err != nil {
		turn.Failure = &TranslationError{Err: err}
		return resultTranslationError
	}
	turn.Statement = translated.SQL
	logger.Debug("statement generated",
		slog.String("provider", translated.Provider),
		slog.String("model", translated.Model),
		slog.String("sql", translated.SQL),
	)

	turn.Outcome = s.executor.Execute(ctx, turn.Statement)
	if turn.Outcome.Err != nil {
		turn.Failure = turn.Outcome.Err
		var forbidden *query.ForbiddenStatementError
		if errors.As(turn.Outcome.Err, &forbidden) {
			observability.IncrementForbiddenStatement()
			return resultForbidden
		}
		return resultExecutionError
	}
	observability.ObserveQuery(len(turn.Outcome.Rows), turn.Outcome.Duration)

	if !turn.Outcome.HasRows() {
		turn.Explanation = explain.EmptyResultMessage
		return resultEmpty
	}

	text, err := s.explain(ctx, turn)
	if err != nil {
		turn.ExplanationErr = &ExplanationError{Err: err}
		logger.Warn("explanation failed", slog.String("error", err.Error()))
		return resultExplanationError
	}
	turn.Explanation = text
	return resultOK
}

func (s *Session) translate(ctx context.Context, question string) (nl2sql.Result, error) {
	ctx, cancel := s.withCapabilityTimeout(ctx)
	defer cancel()

	start := time.Now()
	result, err := s.translator.Translate(ctx, nl2sql.Request{
		History:  s.history.exchanges(),
		Schema:   s.schema,
		Question: question,
	})
	if err == nil && strings.TrimSpace(result.SQL) == "" {
		err = errEmptyStatement
	}
	observability.ObserveCapabilityCall(observability.CapabilityTranslate, time.Since(start), err)
	return result, err
}

func (s *Session) explain(ctx context.Context, turn *Turn) (string, error) {
	ctx, cancel := s.withCapabilityTimeout(ctx)
	defer cancel()

	start := time.Now()
	text, err := s.explainer.Explain(ctx, explain.Request{
		Question:  turn.Question,
		Statement: turn.Statement,
		Columns:   turn.Outcome.Columns,
		Rows:      turn.Outcome.Rows,
	})
	observability.ObserveCapabilityCall(observability.CapabilityExplain, time.Since(start), err)
	return text, err
}

func (s *Session) withCapabilityTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.capabilityTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.capabilityTimeout)
}

// History returns a copy of the recorded turns in conversation order.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.snapshot()
}

func (s *Session) Schema() *schema.Context { return s.schema }

// Close releases the engine. Only the first call has an effect.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.engine != nil {
			s.closeErr = s.engine.Close()
		}
	})
	return s.closeErr
}

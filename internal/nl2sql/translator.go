package nl2sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/askql/askql/internal/llm"
	"github.com/askql/askql/internal/schema"
)

// Exchange is one earlier question and the statement generated for it.
type Exchange struct {
	Question string
	SQL      string
}

type Request struct {
	History  []Exchange
	Schema   *schema.Context
	Question string
}

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}

// LLMTranslator asks a text generator for one statement per question, with
// earlier exchanges replayed so follow-up questions resolve.
type LLMTranslator struct {
	generator llm.Generator
}

func NewLLMTranslator(generator llm.Generator) (*LLMTranslator, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	return &LLMTranslator{generator: generator}, nil
}

func (t *LLMTranslator) Translate(ctx context.Context, req Request) (Result, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Result{}, fmt.Errorf("question is required")
	}
	if req.Schema == nil {
		return Result{}, fmt.Errorf("schema is required")
	}

	raw, err := t.generator.Generate(ctx, BuildPrompt(req))
	if err != nil {
		return Result{}, fmt.Errorf("generate sql: %w", err)
	}
	sql := StripMarkdownSQL(raw)
	if sql == "" {
		return Result{}, fmt.Errorf("model returned empty SQL")
	}
	return Result{
		SQL:      sql,
		Provider: t.generator.Provider(),
		Model:    t.generator.Model(),
	}, nil
}

// BuildPrompt renders the system instruction and the replayed conversation.
func BuildPrompt(req Request) llm.Prompt {
	messages := make([]llm.Message, 0, 2*len(req.History)+1)
	for _, exchange := range req.History {
		if strings.TrimSpace(exchange.SQL) == "" {
			continue
		}
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: exchange.Question},
			llm.Message{Role: llm.RoleAssistant, Content: exchange.SQL},
		)
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: strings.TrimSpace(req.Question)})
	return llm.Prompt{System: systemPrompt(req.Schema), Messages: messages}
}

func systemPrompt(ctx *schema.Context) string {
	dialect := "SQL"
	text := ""
	if ctx != nil {
		dialect = ctx.Dialect()
		text = ctx.Text()
	}
	return fmt.Sprintf(`You are a helpful AI assistant specialized in databases and backend engineering.
Convert user questions into a single valid %[1]s query.
Rules:
- Return ONLY raw SQL. Do not explain anything.
- Do NOT use markdown and do NOT wrap the query in backticks.
- Produce exactly one read-only statement.
- Do not alter, create or drop tables or columns, and do not modify data.
- Only return the columns related to the request.
Use this schema:
%[2]s`, dialect, text)
}

// StripMarkdownSQL removes code fences and surrounding whitespace. An opening
// fence is dropped with its whole info string (```sql, ```sqlite, ...); a
// closing fence is dropped even without an opening one.
func StripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
			trimmed = trimmed[newline+1:]
		} else {
			trimmed = strings.TrimLeft(trimmed, "`")
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

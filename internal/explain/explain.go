// Package explain turns a question, its statement and the returned rows into
// prose.
package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/askql/askql/internal/llm"
)

// EmptyResultMessage replaces an explanation when a statement returns no rows.
const EmptyResultMessage = "No records were found matching your request."

// MaxPromptRows bounds how many rows are quoted to the model.
const MaxPromptRows = 200

const systemPrompt = `You are a helpful AI assistant specialized in databases and backend engineering, and you're also very good at explaining things.
You receive sql results and explain them in human readable friendly format.`

type Request struct {
	Question  string
	Statement string
	Columns   []string
	Rows      [][]any
}

type Explainer interface {
	Explain(ctx context.Context, req Request) (string, error)
}

type LLMExplainer struct {
	generator llm.Generator
}

func NewLLMExplainer(generator llm.Generator) (*LLMExplainer, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	return &LLMExplainer{generator: generator}, nil
}

func (e *LLMExplainer) Explain(ctx context.Context, req Request) (string, error) {
	if len(req.Rows) == 0 {
		return "", fmt.Errorf("no rows to explain")
	}
	text, err := e.generator.Generate(ctx, llm.Prompt{
		System:   systemPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: BuildPrompt(req)}},
	})
	if err != nil {
		return "", fmt.Errorf("generate explanation: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("model returned an empty explanation")
	}
	return text, nil
}

// BuildPrompt renders the user message sent to the model.
func BuildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User question: %s\n\n", strings.TrimSpace(req.Question))
	fmt.Fprintf(&b, "SQL query executed:\n%s\n\n", strings.TrimSpace(req.Statement))
	b.WriteString("SQL result rows:\n")
	if len(req.Columns) > 0 {
		fmt.Fprintf(&b, "columns: (%s)\n", strings.Join(req.Columns, ", "))
	}
	shown := req.Rows
	if len(shown) > MaxPromptRows {
		shown = shown[:MaxPromptRows]
	}
	for _, row := range shown {
		b.WriteString(FormatRow(row))
		b.WriteByte('\n')
	}
	if len(req.Rows) > len(shown) {
		fmt.Fprintf(&b, "(showing the first %d of %d rows)\n", len(shown), len(req.Rows))
	}
	b.WriteString("\nExplain these results clearly in a friendly human-readable way.")
	return b.String()
}

// FormatRow renders one row as a parenthesised tuple.
func FormatRow(row []any) string {
	parts := make([]string, len(row))
	for i, value := range row {
		parts[i] = FormatValue(value)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func FormatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + typed + "'"
	case []byte:
		return "'" + string(typed) + "'"
	default:
		return fmt.Sprint(typed)
	}
}

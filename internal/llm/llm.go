// Package llm defines the text-generation capability used to translate
// questions and explain results. Implementations live in subpackages.
package llm

import "context"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Prompt is a system instruction plus the conversation so far. The last
// message is the one being answered.
type Prompt struct {
	System   string
	Messages []Message
}

type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
	Model() string
	Provider() string
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt Prompt) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}

func (f GeneratorFunc) Model() string    { return "func" }
func (f GeneratorFunc) Provider() string { return "func" }

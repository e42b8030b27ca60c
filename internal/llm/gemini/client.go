package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/askql/askql/internal/llm"
)

type Config struct {
	APIKey      string
	Model       string
	Temperature float64
}

// Client sends prompts to Gemini as a chat: prior messages become the chat
// history and the final user message is sent.
type Client struct {
	client      *genai.Client
	model       string
	temperature float32
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(strings.TrimSpace(cfg.APIKey)))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: client, model: model, temperature: float32(cfg.Temperature)}, nil
}

func (c *Client) Model() string    { return c.model }
func (c *Client) Provider() string { return "gemini" }

func (c *Client) Generate(ctx context.Context, prompt llm.Prompt) (string, error) {
	history, last, err := splitPrompt(prompt)
	if err != nil {
		return "", err
	}

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(c.temperature)
	if strings.TrimSpace(prompt.System) != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt.System)}}
	}

	session := model.StartChat()
	session.History = history
	resp, err := session.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", fmt.Errorf("gemini send message: %w", err)
	}
	return responseText(resp)
}

func (c *Client) Close() error {
	return c.client.Close()
}

func splitPrompt(prompt llm.Prompt) ([]*genai.Content, string, error) {
	if len(prompt.Messages) == 0 {
		return nil, "", fmt.Errorf("prompt has no messages")
	}
	last := prompt.Messages[len(prompt.Messages)-1]
	if last.Role != llm.RoleUser {
		return nil, "", fmt.Errorf("last prompt message must come from the user, got %q", last.Role)
	}

	history := make([]*genai.Content, 0, len(prompt.Messages)-1)
	for _, msg := range prompt.Messages[:len(prompt.Messages)-1] {
		history = append(history, &genai.Content{
			Role:  roleFor(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return history, last.Content, nil
}

func roleFor(role llm.Role) string {
	if role == llm.RoleAssistant {
		return "model"
	}
	return "user"
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", fmt.Errorf("gemini candidate has no content (finish reason %v)", candidate.FinishReason)
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini candidate has no text parts")
	}
	return b.String(), nil
}

package llm

import (
	"context"
)

// Message is one chat turn sent to a model.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GenerateResult contains the model's text output and token usage if available.
type GenerateResult struct {
	Text         string
	PromptTokens int
	OutputTokens int
	TotalTokens  int
	Model        string
}

// LLM is a minimal text generation backend.
type LLM interface {
	// Name returns provider name (e.g., "openai").
	Name() string
	Generate(ctx context.Context, messages []Message) (GenerateResult, error)
}

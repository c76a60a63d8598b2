package llm

import "context"

// Client generates freeform text from a prompt. An optional system
// prompt is prefixed to the prompt when non-empty.
type Client interface {
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)
}

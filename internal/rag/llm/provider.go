package llm

import "context"

type CompletionOptions struct {
	Temperature float64
	// MaxTokens of 0 leaves the provider default.
	MaxTokens int
}

// Provider produces one completion for a system instruction and a user prompt.
type Provider interface {
	Complete(ctx context.Context, system, user string, opts CompletionOptions) (string, error)
}

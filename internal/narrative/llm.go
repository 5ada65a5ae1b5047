// Package narrative turns an assembled card context and a user question into a
// natural-language answer. It defines a provider-agnostic LLM interface with an
// OpenAI-compatible implementation (OpenAI, Groq and other compatible endpoints)
// and a deterministic mock for testing. The generator consumes rendered prompts
// and returns structured replies.
package narrative

import (
	"context"
	"errors"
)

var (
	ErrLLMFailed     = errors.New("LLM request failed")
	ErrInvalidConfig = errors.New("invalid LLM configuration")
)

// LLM defines the interface for interacting with language models.
// Implementations must be stateless and thread-safe.
type LLM interface {
	// Generate sends a system instruction and a user prompt in a single
	// round trip and returns the model's text.
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// LLMConfig holds common configuration options for LLM providers.
type LLMConfig struct {
	// Model specifies the model identifier (e.g., "llama-3.1-8b-instant", "gpt-4o")
	Model string

	// Temperature controls randomness (0.0 = deterministic, 2.0 = very random)
	Temperature float32

	// MaxTokens limits the response length (0 = use provider default)
	MaxTokens int

	// APIKey is the authentication key for the provider
	APIKey string

	// BaseURL points the client at an OpenAI-compatible endpoint.
	// Empty means the OpenAI default.
	BaseURL string
}

// DefaultLLMConfig returns the defaults for card answers: a Groq hosted model
// at temperature 0.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model:       "llama-3.1-8b-instant",
		Temperature: 0,
		MaxTokens:   2000,
		BaseURL:     "https://api.groq.com/openai/v1",
	}
}

package llm

import (
	"context"
	"errors"
)

// ErrEmbeddingService marks transport or model failures of the embedding
// service. Check with errors.Is.
var ErrEmbeddingService = errors.New("llm: embedding service error")

// ErrChatService marks transport or model failures of the chat service.
var ErrChatService = errors.New("llm: chat service error")

// Embedder converts text into a fixed-dimension vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// StreamFunc receives one text fragment of a streamed completion.
// Returning an error stops the stream.
type StreamFunc func(fragment string) error

// Completer produces a text completion for a fully rendered prompt.
type Completer interface {
	// Complete returns the full completion text
	Complete(ctx context.Context, prompt string, config ModelConfig) (string, error)

	// CompleteStream invokes fn once per generated fragment and returns
	// the concatenation of all fragments once the stream is exhausted
	CompleteStream(ctx context.Context, prompt string, config ModelConfig, fn StreamFunc) (string, error)
}

// ModelConfig holds configuration parameters for model generation
type ModelConfig struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// DefaultModelConfig returns a default configuration
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   2048,
	}
}

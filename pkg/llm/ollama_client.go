package llm

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaClient talks to a local Ollama server through its API client.
// It implements both Embedder and Completer.
type OllamaClient struct {
	client     *api.Client
	embedModel string
	chatModel  string
}

// NewOllamaClient creates a client for an Ollama server. host defaults to
// http://localhost:11434 when empty.
func NewOllamaClient(host, embedModel, chatModel string) (*OllamaClient, error) {
	if host == "" {
		host = "http://localhost:11434"
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama host URL %q: %w", host, err)
	}

	httpClient := &http.Client{
		Timeout: 5 * time.Minute, // generations can run long
	}

	return &OllamaClient{
		client:     api.NewClient(base, httpClient),
		embedModel: embedModel,
		chatModel:  chatModel,
	}, nil
}

// Embed generates an embedding vector for the given text. Requests are
// retried with exponential backoff before giving up.
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	req := &api.EmbeddingRequest{
		Model:  c.embedModel,
		Prompt: text,
	}

	const maxRetries = 3
	baseDelay := 1 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		resp, err := c.client.Embeddings(reqCtx, req)
		cancel()
		if err == nil {
			return toFloat32(resp.Embedding), nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		retryDelay := time.Duration(math.Pow(2, float64(attempt))) * baseDelay
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, ctx.Err())
		}
	}

	return nil, fmt.Errorf("%w: embedding failed after %d attempts: %v", ErrEmbeddingService, maxRetries, lastErr)
}

// Complete generates the full completion for a rendered prompt.
func (c *OllamaClient) Complete(ctx context.Context, prompt string, config ModelConfig) (string, error) {
	return c.generate(ctx, prompt, config, false, nil)
}

// CompleteStream generates a completion incrementally, invoking fn for each
// fragment. The concatenated text is returned once the stream finishes.
func (c *OllamaClient) CompleteStream(ctx context.Context, prompt string, config ModelConfig, fn StreamFunc) (string, error) {
	return c.generate(ctx, prompt, config, true, fn)
}

func (c *OllamaClient) generate(ctx context.Context, prompt string, config ModelConfig, stream bool, fn StreamFunc) (string, error) {
	req := &api.GenerateRequest{
		Model:  c.chatModel,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": config.Temperature,
			"top_p":       config.TopP,
			"num_predict": config.MaxTokens,
		},
	}

	var full strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		full.WriteString(resp.Response)
		if fn != nil && resp.Response != "" {
			return fn(resp.Response)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrChatService, err)
	}

	return full.String(), nil
}

// Close cleans up any resources
func (*OllamaClient) Close() error {
	// No cleanup needed for HTTP client
	return nil
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}

// Package responder answers natural-language queries grounded in the single
// most relevant stored record, with optional multi-turn conversation memory.
package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andrew/rag-pipeline/pkg/llm"
	"github.com/andrew/rag-pipeline/pkg/models"
	"github.com/andrew/rag-pipeline/pkg/prompt"
	"github.com/andrew/rag-pipeline/pkg/vector"
)

// ErrNoGrounding is returned by Answer when the similarity search produced
// no results. It is distinct from a generation failure so callers can present
// "I don't know" instead of an outage message.
var ErrNoGrounding = errors.New("responder: no grounding found for query")

// Responder wires the embedder, vector store and chat completer into the
// grounded question-answering flow.
type Responder struct {
	store    vector.Store
	embedder llm.Embedder
	chat     llm.Completer
	template string
	config   llm.ModelConfig
}

// Option configures a Responder.
type Option func(*Responder)

// WithTemplate overrides the default grounded-answer instruction template.
func WithTemplate(template string) Option {
	return func(r *Responder) { r.template = template }
}

// WithModelConfig overrides the default generation parameters.
func WithModelConfig(config llm.ModelConfig) Option {
	return func(r *Responder) { r.config = config }
}

// New creates a Responder over the given collaborators.
func New(store vector.Store, embedder llm.Embedder, chat llm.Completer, opts ...Option) *Responder {
	r := &Responder{
		store:    store,
		embedder: embedder,
		chat:     chat,
		template: prompt.GroundedAnswer,
		config:   llm.DefaultModelConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SearchTop embeds the query and returns up to topK stored items ordered by
// descending relevance. An empty collection yields an empty slice, not an
// error.
func (r *Responder) SearchTop(ctx context.Context, query string, topK int) ([]models.SearchResult, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	results, err := r.store.Search(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	return results, nil
}

// Answer responds to query grounded in the best-matching stored record.
//
// When history is non-nil the user query is appended before the search, and
// the assistant reply is appended after a successful generation. A query
// with no grounding fails with ErrNoGrounding without calling the chat
// service.
func (r *Responder) Answer(ctx context.Context, query string, history *models.ConversationHistory) (string, error) {
	rendered, err := r.prepare(ctx, query, history)
	if err != nil {
		return "", err
	}

	answer, err := r.chat.Complete(ctx, rendered, r.config)
	if err != nil {
		return "", err
	}

	if history != nil {
		history.Add(models.RoleAssistant, answer)
	}
	return answer, nil
}

// AnswerStream behaves like Answer but delivers the response incrementally
// through fn. History receives the fully concatenated assistant text only
// after the stream is exhausted; a failure or cancellation mid-stream leaves
// the history without an assistant entry.
func (r *Responder) AnswerStream(ctx context.Context, query string, history *models.ConversationHistory, fn llm.StreamFunc) (string, error) {
	rendered, err := r.prepare(ctx, query, history)
	if err != nil {
		return "", err
	}

	answer, err := r.chat.CompleteStream(ctx, rendered, r.config, fn)
	if err != nil {
		return "", err
	}

	if history != nil {
		history.Add(models.RoleAssistant, answer)
	}
	return answer, nil
}

// prepare runs the shared front half of both answer variants: history
// append, grounding search and prompt rendering.
func (r *Responder) prepare(ctx context.Context, query string, history *models.ConversationHistory) (string, error) {
	transcript := ""
	if history != nil {
		history.Add(models.RoleUser, query)
		transcript = history.Transcript()
	}

	results, err := r.SearchTop(ctx, query, 1)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", ErrNoGrounding
	}

	// Ground on the full structured record, not just the similarity text.
	grounding := results[0].AdditionalMetadata
	if grounding == "" {
		grounding = results[0].Text
	}

	rendered, err := prompt.Render(r.template, map[string]string{
		"db_record":  grounding,
		"query_term": query,
		"history":    strings.TrimSpace(transcript),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return rendered, nil
}

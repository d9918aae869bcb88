package responder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew/rag-pipeline/pkg/ingest"
	"github.com/andrew/rag-pipeline/pkg/llm"
	"github.com/andrew/rag-pipeline/pkg/models"
	"github.com/andrew/rag-pipeline/pkg/vector"
)

// fixtureEmbedder maps known texts to fixed vectors with known cosine
// geometry. Unknown texts land on a far-away axis.
type fixtureEmbedder struct {
	vectors map[string][]float32
}

func (f *fixtureEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

// scriptedChat replays a fixed fragment sequence and records the prompts it
// was asked to complete.
type scriptedChat struct {
	fragments  []string
	calls      int
	lastPrompt string
	err        error
}

func (s *scriptedChat) Complete(_ context.Context, prompt string, _ llm.ModelConfig) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return strings.Join(s.fragments, ""), nil
}

func (s *scriptedChat) CompleteStream(_ context.Context, prompt string, _ llm.ModelConfig, fn llm.StreamFunc) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	var full strings.Builder
	for _, frag := range s.fragments {
		if err := fn(frag); err != nil {
			return "", err
		}
		full.WriteString(frag)
	}
	return full.String(), nil
}

const (
	godfatherContent = "The Godfather: The aging patriarch of an organized crime dynasty transfers control to his reluctant son."
	towerContent     = "The Lord of the Rings: A fellowship sets out to destroy a ring of power."
	godfatherQuery   = "What do you know about the godfather?"
)

// newFixture builds a responder over a populated memory store with known
// similarity geometry: the godfather query is close to the godfather record
// and far from everything else.
func newFixture(t *testing.T, chat *scriptedChat) (*Responder, *vector.MemoryStore) {
	t.Helper()
	ctx := context.Background()

	embedder := &fixtureEmbedder{vectors: map[string][]float32{
		godfatherContent: {1, 0.1, 0},
		towerContent:     {0, 1, 0},
		godfatherQuery:   {0.98, 0.05, 0.1},
	}}

	store := vector.NewMemoryStore()
	require.NoError(t, store.EnsureCollection(ctx, vector.CollectionConfig{Dimension: 3}))

	engine := ingest.NewEngine(store, embedder)
	_, err := engine.UpsertBatch(ctx, []models.Record{
		{ID: "movie-1", Title: "The Godfather", Content: godfatherContent},
		{ID: "movie-2", Title: "The Lord of the Rings", Content: towerContent},
	})
	require.NoError(t, err)

	return New(store, embedder, chat), store
}

func TestSearchTop_GroundingSelection(t *testing.T) {
	rag, _ := newFixture(t, &scriptedChat{})

	results, err := rag.SearchTop(context.Background(), godfatherQuery, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, godfatherContent, results[0].Text)
	assert.Greater(t, results[0].Relevance, float32(0.8))
	assert.Greater(t, results[0].Relevance, results[1].Relevance)
}

func TestSearchTop_EmptyCollection(t *testing.T) {
	ctx := context.Background()
	store := vector.NewMemoryStore()
	require.NoError(t, store.EnsureCollection(ctx, vector.CollectionConfig{Dimension: 3}))

	rag := New(store, &fixtureEmbedder{}, &scriptedChat{})
	results, err := rag.SearchTop(ctx, "anything", 1)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAnswer_GroundsPromptInTopResult(t *testing.T) {
	chat := &scriptedChat{fragments: []string{"A classic mafia film."}}
	rag, _ := newFixture(t, chat)

	answer, err := rag.Answer(context.Background(), godfatherQuery, nil)
	require.NoError(t, err)
	assert.Equal(t, "A classic mafia film.", answer)

	// The prompt grounds on the full structured record and carries the
	// query verbatim.
	assert.Contains(t, chat.lastPrompt, `"id":"movie-1"`)
	assert.Contains(t, chat.lastPrompt, godfatherQuery)
	assert.Contains(t, chat.lastPrompt, "I don't know")
}

func TestAnswer_NoGrounding(t *testing.T) {
	ctx := context.Background()
	store := vector.NewMemoryStore()
	require.NoError(t, store.EnsureCollection(ctx, vector.CollectionConfig{Dimension: 3}))

	chat := &scriptedChat{fragments: []string{"should never run"}}
	rag := New(store, &fixtureEmbedder{}, chat)

	_, err := rag.Answer(ctx, "anything", nil)
	assert.ErrorIs(t, err, ErrNoGrounding)
	assert.Zero(t, chat.calls, "chat gateway must not be called without grounding")
}

func TestAnswer_HistoryMonotonicity(t *testing.T) {
	chat := &scriptedChat{fragments: []string{"grounded ", "answer"}}
	rag, _ := newFixture(t, chat)

	history := models.NewHistory("answer only from the records")
	const n = 3
	for i := 0; i < n; i++ {
		_, err := rag.Answer(context.Background(), godfatherQuery, history)
		require.NoError(t, err)
	}

	msgs := history.Messages()
	require.Len(t, msgs, 2*n+1)
	assert.Equal(t, models.RoleSystem, msgs[0].Role)
	for i := 1; i < len(msgs); i += 2 {
		assert.Equal(t, models.RoleUser, msgs[i].Role)
		assert.Equal(t, models.RoleAssistant, msgs[i+1].Role)
		assert.Equal(t, "grounded answer", msgs[i+1].Content)
	}
}

func TestAnswer_HistoryInPrompt(t *testing.T) {
	chat := &scriptedChat{fragments: []string{"ok"}}
	rag, _ := newFixture(t, chat)

	history := models.NewHistory("")
	_, err := rag.Answer(context.Background(), godfatherQuery, history)
	require.NoError(t, err)

	// The user turn appended before the search appears in the transcript.
	assert.Contains(t, chat.lastPrompt, "user: "+godfatherQuery)
}

func TestAnswer_ChatErrorLeavesNoAssistantEntry(t *testing.T) {
	chat := &scriptedChat{err: errors.New("model outage")}
	rag, _ := newFixture(t, chat)

	history := models.NewHistory("")
	_, err := rag.Answer(context.Background(), godfatherQuery, history)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoGrounding)

	// The user entry stays (appended before the search), the assistant
	// entry does not.
	msgs := history.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
}

func TestAnswerStream_Equivalence(t *testing.T) {
	chat := &scriptedChat{fragments: []string{"The ", "Godfather ", "is ", "a ", "film."}}
	rag, _ := newFixture(t, chat)

	full, err := rag.Answer(context.Background(), godfatherQuery, nil)
	require.NoError(t, err)

	var streamed strings.Builder
	returned, err := rag.AnswerStream(context.Background(), godfatherQuery, nil, func(fragment string) error {
		streamed.WriteString(fragment)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, full, streamed.String())
	assert.Equal(t, full, returned)
}

func TestAnswerStream_HistoryAppendedAfterExhaustion(t *testing.T) {
	chat := &scriptedChat{fragments: []string{"part1 ", "part2"}}
	rag, _ := newFixture(t, chat)

	history := models.NewHistory("")
	var sawAssistantEntryMidStream bool
	_, err := rag.AnswerStream(context.Background(), godfatherQuery, history, func(string) error {
		for _, msg := range history.Messages() {
			if msg.Role == models.RoleAssistant {
				sawAssistantEntryMidStream = true
			}
		}
		return nil
	})
	require.NoError(t, err)

	assert.False(t, sawAssistantEntryMidStream, "assistant entry must only appear after the stream is exhausted")
	msgs := history.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "part1 part2", msgs[1].Content)
}

func TestAnswerStream_CancellationLeavesHistoryUnmodified(t *testing.T) {
	chat := &scriptedChat{fragments: []string{"part1 ", "part2"}}
	rag, _ := newFixture(t, chat)

	history := models.NewHistory("")
	stop := errors.New("consumer stopped")
	_, err := rag.AnswerStream(context.Background(), godfatherQuery, history, func(string) error {
		return stop
	})
	require.ErrorIs(t, err, stop)

	// No partial assistant message is appended.
	for _, msg := range history.Messages() {
		assert.NotEqual(t, models.RoleAssistant, msg.Role)
	}
}

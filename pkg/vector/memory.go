package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/andrew/rag-pipeline/pkg/models"
)

// MemoryStore is an in-memory vector store using brute-force cosine
// similarity. It is meant for local runs and tests; it holds the same
// access contract as the Qdrant-backed store.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	items     map[string]models.StoredItem
	order     []string // insertion order, for deterministic iteration
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]models.StoredItem)}
}

// EnsureCollection fixes the vector dimension. Calling it again with the
// same dimension is a no-op.
func (s *MemoryStore) EnsureCollection(_ context.Context, cfg CollectionConfig) error {
	if cfg.Dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", cfg.Dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && s.dimension != cfg.Dimension {
		return fmt.Errorf("collection already provisioned with dimension %d", s.dimension)
	}
	s.dimension = cfg.Dimension
	return nil
}

// Get looks up a single item by id.
func (s *MemoryStore) Get(_ context.Context, id string, withEmbedding bool) (models.StoredItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return models.StoredItem{}, ErrNotFound
	}
	if withEmbedding {
		emb := make([]float32, len(item.Embedding))
		copy(emb, item.Embedding)
		item.Embedding = emb
	} else {
		item.Embedding = nil
	}
	return item, nil
}

// Upsert stores an item keyed by id, replacing any earlier item with the
// same id.
func (s *MemoryStore) Upsert(_ context.Context, item models.StoredItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension > 0 && len(item.Embedding) != s.dimension {
		return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(item.Embedding), s.dimension)
	}
	emb := make([]float32, len(item.Embedding))
	copy(emb, item.Embedding)
	item.Embedding = emb
	if _, ok := s.items[item.ID]; !ok {
		s.order = append(s.order, item.ID)
	}
	s.items[item.ID] = item
	return nil
}

// Search scores every stored item against the query vector by cosine
// similarity and returns the topK results in descending relevance order.
func (s *MemoryStore) Search(_ context.Context, queryVector []float32, topK int) ([]models.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 1
	}

	type scored struct {
		item  models.StoredItem
		score float32
	}
	all := make([]scored, 0, len(s.order))
	for _, id := range s.order {
		item := s.items[id]
		all = append(all, scored{item: item, score: cosine(item.Embedding, queryVector)})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	if topK > len(all) {
		topK = len(all)
	}
	results := make([]models.SearchResult, 0, topK)
	for _, sc := range all[:topK] {
		results = append(results, models.SearchResult{
			Text:               sc.item.Text,
			Relevance:          clampRelevance(sc.score),
			AdditionalMetadata: sc.item.AdditionalMetadata,
		})
	}
	return results, nil
}

// Drop clears all stored items.
func (s *MemoryStore) Drop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]models.StoredItem)
	s.order = nil
	s.dimension = 0
	return nil
}

// Close is a no-op for the in-memory store.
func (*MemoryStore) Close() error { return nil }

// Len returns the number of stored items.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

package vector

import (
	"context"
	"errors"

	"github.com/andrew/rag-pipeline/pkg/models"
)

// ErrNotFound is returned by Get when no item with the given id exists in
// the collection.
var ErrNotFound = errors.New("vector: item not found")

// Distance metrics supported for collection provisioning.
const (
	DistanceCosine    = "cosine"
	DistanceEuclidean = "euclidean"
	DistanceDot       = "dot"
)

// CollectionConfig describes the one-time provisioning contract of a
// collection. EnsureCollection with an identical config is a no-op.
type CollectionConfig struct {
	Dimension int    // Vector dimension size
	Distance  string // One of the Distance* constants; defaults to cosine
	// HNSW index parameters; zero values keep the store defaults
	HNSWM           uint64
	HNSWEfConstruct uint64
}

// Store defines the interface for vector database operations.
// Implementations are bound to a single named collection.
type Store interface {
	// EnsureCollection provisions the collection if it does not exist yet
	EnsureCollection(ctx context.Context, cfg CollectionConfig) error

	// Get performs a point lookup by id. It returns ErrNotFound when no
	// item with that id exists. The embedding is populated only when
	// withEmbedding is set.
	Get(ctx context.Context, id string, withEmbedding bool) (models.StoredItem, error)

	// Upsert inserts or replaces an item keyed by its id
	Upsert(ctx context.Context, item models.StoredItem) error

	// Search finds the stored items most similar to the query vector,
	// ordered by descending relevance
	Search(ctx context.Context, queryVector []float32, topK int) ([]models.SearchResult, error)

	// Drop deletes the collection and everything in it
	Drop(ctx context.Context) error

	// Close releases resources used by the vector store
	Close() error
}

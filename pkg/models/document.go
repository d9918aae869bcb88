package models

// Record represents a single entry of a batch source before indexing.
// The caller assigns the ID; Content is the only field that gets embedded.
type Record struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// StoredItem represents an indexed record inside a vector store collection.
// Once written it is never updated in place; its existence alone suppresses
// re-embedding on later ingestion runs.
type StoredItem struct {
	ID                 string    `json:"id"`
	Text               string    `json:"text"`
	Embedding          []float32 `json:"embedding,omitempty"`
	Description        string    `json:"description"`
	AdditionalMetadata string    `json:"additional_metadata,omitempty"`
}

// SearchResult represents a stored item that matched a query.
// Relevance is a similarity score in [0,1], higher means closer.
type SearchResult struct {
	Text               string  `json:"text"`
	Relevance          float32 `json:"relevance"`
	AdditionalMetadata string  `json:"additional_metadata,omitempty"`
}

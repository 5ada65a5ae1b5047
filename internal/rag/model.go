package rag

import (
	"context"
)

// CardChunk is one embedded chunk of a card record as stored in the vector store.
type CardChunk struct {
	ID        string    `json:"id"`
	CardName  string    `json:"card_name"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"-"`
}

// ContextChunk represents a retrieved chunk with its similarity score.
type ContextChunk struct {
	ID       string  `json:"id"`
	CardName string  `json:"card_name"`
	Text     string  `json:"text"`
	Score    float32 `json:"score"` // cosine similarity, higher is closer
}

// SearchOptions tunes a vector search.
type SearchOptions struct {
	MinScore float32 `json:"min_score,omitempty"` // Drop results scoring below this
}

// VectorStore defines the interface for vector storage and similarity search
// of card chunks.
type VectorStore interface {
	// Insert efficiently inserts multiple chunks in a single operation
	Insert(ctx context.Context, chunks []CardChunk) error

	// Flush ensures all pending data is persisted
	Flush(ctx context.Context) error

	// Search performs top-K similarity search with optional filtering.
	// Results are ordered by descending score.
	Search(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]ContextChunk, error)

	// Query checks which chunk IDs exist in the store
	// Returns a map where keys are chunk IDs and values indicate existence
	Query(ctx context.Context, ids []string) (map[string]bool, error)

	// Delete removes records by chunk IDs
	Delete(ctx context.Context, ids []string) error

	// GetStats returns collection statistics (record count, index status, etc.)
	GetStats(ctx context.Context) (map[string]any, error)

	// Close releases resources and closes connections
	Close() error
}

// Document is a card record ready for chunking and embedding.
type Document struct {
	CardName string
	Text     string
}

// IndexOptions provides configuration for card indexing
type IndexOptions struct {
	// BatchSize determines how many chunks to embed at once
	BatchSize int

	// Workers bounds how many batches are embedded concurrently
	Workers int

	// ForceReindex will delete and re-insert chunks even if they exist
	ForceReindex bool

	// SkipExisting will check if a chunk already exists and skip if present
	SkipExisting bool
}

// IndexStats reports what an indexing run did.
type IndexStats struct {
	Chunks   int `json:"chunks"`
	Skipped  int `json:"skipped"`
	Inserted int `json:"inserted"`
	Batches  int `json:"batches"`
}

package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/Yates-Labs/cardsage/internal/retrieval"
)

// ErrEmptyQuery is returned when a blank query is passed to the retriever.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Retriever provides semantic retrieval over card chunks: it embeds the query,
// searches the vector store and drops results below the score threshold.
type Retriever struct {
	embedder    Embedder
	vectorStore VectorStore
	topK        int
	minScore    float32
}

// NewRetriever creates a new Retriever instance.
func NewRetriever(embedder Embedder, vectorStore VectorStore, topK int, minScore float32) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if vectorStore == nil {
		return nil, fmt.Errorf("vector store cannot be nil")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	return &Retriever{
		embedder:    embedder,
		vectorStore: vectorStore,
		topK:        topK,
		minScore:    minScore,
	}, nil
}

// Retrieve implements retrieval.Retriever using the configured topK and threshold.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]retrieval.Chunk, error) {
	found, err := r.RetrieveContextForQuery(ctx, query, r.topK, &SearchOptions{MinScore: r.minScore})
	if err != nil {
		return nil, err
	}

	chunks := make([]retrieval.Chunk, len(found))
	for i, c := range found {
		chunks[i] = retrieval.Chunk{
			Content:     c.Text,
			Score:       c.Score,
			SourceQuery: query,
		}
	}
	return chunks, nil
}

// RetrieveContextForQuery performs semantic search using a free-text query.
func (r *Retriever) RetrieveContextForQuery(
	ctx context.Context,
	query string,
	topK int,
	opts *SearchOptions,
) ([]ContextChunk, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	embeddingRecords, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddingRecords) == 0 {
		return nil, fmt.Errorf("no embedding generated for query")
	}

	chunks, err := r.vectorStore.Search(ctx, embeddingRecords[0].Embedding, topK, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search for query: %w", err)
	}

	// Stores may apply the threshold themselves; enforce it regardless.
	if opts != nil && opts.MinScore > 0 {
		kept := chunks[:0]
		for _, c := range chunks {
			if c.Score >= opts.MinScore {
				kept = append(kept, c)
			}
		}
		chunks = kept
	}

	return chunks, nil
}


// Package retrieval decides whether a similarity search can be trusted and, when it
// cannot, synthesizes fallback probes, merges their results and assembles the
// context handed to the answer generator.
//
// Everything in this package is pure or stateless per call. The only external
// collaborator is the Retriever interface, which callers supply.
package retrieval

import (
	"context"
	"crypto/sha256"
)

// Chunk is a unit of retrieved text, typically (a fragment of) one card record.
// Two chunks are the same chunk when their Content bytes are equal.
type Chunk struct {
	// Content is the opaque record text returned by the retriever.
	Content string `json:"content"`

	// Score is the similarity score reported by the retriever.
	Score float32 `json:"score"`

	// SourceQuery is the query or probe text that surfaced this chunk.
	SourceQuery string `json:"source_query,omitempty"`
}

// Retriever returns a ranked sequence of chunks for a query string.
// Implementations must be safe for concurrent use.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Chunk, error)
}

// RetrieverFunc adapts a function to the Retriever interface.
type RetrieverFunc func(ctx context.Context, query string) ([]Chunk, error)

// Retrieve calls f(ctx, query).
func (f RetrieverFunc) Retrieve(ctx context.Context, query string) ([]Chunk, error) {
	return f(ctx, query)
}

type contentKey [sha256.Size]byte

func keyOf(c Chunk) contentKey {
	return sha256.Sum256([]byte(c.Content))
}

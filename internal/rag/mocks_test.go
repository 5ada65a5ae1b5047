package rag

import (
	"context"
	"sort"
	"sync"
)

// mockEmbedder implements Embedder interface for testing
type mockEmbedder struct {
	embedFunc func(ctx context.Context, texts []string) ([]EmbeddingRecord, error)

	mu    sync.Mutex
	calls int
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.embedFunc != nil {
		return m.embedFunc(ctx, texts)
	}
	// Default: a 3-dim vector derived from the text
	records := make([]EmbeddingRecord, len(texts))
	for i, text := range texts {
		records[i] = EmbeddingRecord{
			Text:      text,
			Embedding: []float32{float32(len(text)), float32(i), 1.0},
			Index:     i,
			Model:     "mock",
		}
	}
	return records, nil
}

func (m *mockEmbedder) GetModel() string  { return "mock" }
func (m *mockEmbedder) GetDimension() int { return 3 }

func (m *mockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockVectorStore implements VectorStore interface for testing.
// Search returns stored chunks in ID order with a fixed score.
type mockVectorStore struct {
	mu          sync.Mutex
	chunks      map[string]CardChunk
	flushes     int
	deleted     []string
	deleteCalls int

	searchFunc func(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]ContextChunk, error)
	queryFunc  func(ctx context.Context, ids []string) (map[string]bool, error)
	insertFunc func(ctx context.Context, chunks []CardChunk) error
}

func (m *mockVectorStore) Insert(ctx context.Context, chunks []CardChunk) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, chunks)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chunks == nil {
		m.chunks = make(map[string]CardChunk)
	}
	for _, ch := range chunks {
		m.chunks[ch.ID] = ch
	}
	return nil
}

func (m *mockVectorStore) Flush(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	return nil
}

func (m *mockVectorStore) Search(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]ContextChunk, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, queryVector, topK, opts)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ContextChunk, 0, len(m.chunks))
	for _, ch := range m.chunks {
		out = append(out, ContextChunk{ID: ch.ID, CardName: ch.CardName, Text: ch.Text, Score: 0.5})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (m *mockVectorStore) Query(ctx context.Context, ids []string) (map[string]bool, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, ids)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[string]bool, len(ids))
	for _, id := range ids {
		_, ok := m.chunks[id]
		result[id] = ok
	}
	return result, nil
}

func (m *mockVectorStore) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.chunks, id)
	}
	m.deleted = append(m.deleted, ids...)
	m.deleteCalls++
	return nil
}

func (m *mockVectorStore) GetStats(context.Context) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]any{"row_count": len(m.chunks)}, nil
}

func (m *mockVectorStore) Close() error { return nil }

func (m *mockVectorStore) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.chunks))
	for _, ch := range m.chunks {
		out = append(out, ch.Text)
	}
	sort.Strings(out)
	return out
}


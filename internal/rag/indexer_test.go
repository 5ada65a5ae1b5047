package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func cardDocs(n int) []Document {
	docs := make([]Document, n)
	for i := range docs {
		name := fmt.Sprintf("Card %02d", i)
		docs[i] = Document{CardName: name, Text: "Card Name: " + name}
	}
	return docs
}

func TestIndexCards_InsertsAllBatches(t *testing.T) {
	store := &mockVectorStore{}
	embedder := &mockEmbedder{}
	opts := IndexOptions{BatchSize: 4, Workers: 3}

	stats, err := IndexCards(context.Background(), cardDocs(10), embedder, store, opts, nil)
	if err != nil {
		t.Fatalf("IndexCards failed: %v", err)
	}

	if stats.Chunks != 10 || stats.Inserted != 10 {
		t.Errorf("expected 10 chunks inserted, got %+v", stats)
	}
	if stats.Batches != 3 {
		t.Errorf("expected 3 batches, got %d", stats.Batches)
	}
	if embedder.Calls() != 3 {
		t.Errorf("expected 3 embed calls, got %d", embedder.Calls())
	}
	if store.flushes != 1 {
		t.Errorf("expected 1 flush, got %d", store.flushes)
	}
	if n := len(store.texts()); n != 10 {
		t.Errorf("expected 10 stored chunks, got %d", n)
	}
}

func TestIndexCards_DropsDuplicateDocuments(t *testing.T) {
	store := &mockVectorStore{}
	docs := append(cardDocs(3), cardDocs(3)...)
	docs = append(docs, Document{CardName: "blank"})

	stats, err := IndexCards(context.Background(), docs, &mockEmbedder{}, store, DefaultIndexOptions(), nil)
	if err != nil {
		t.Fatalf("IndexCards failed: %v", err)
	}
	if stats.Chunks != 3 || stats.Inserted != 3 {
		t.Errorf("expected 3 unique chunks inserted, got %+v", stats)
	}
}

func TestIndexCards_SkipExisting(t *testing.T) {
	store := &mockVectorStore{}
	ctx := context.Background()

	if _, err := IndexCards(ctx, cardDocs(5), &mockEmbedder{}, store, DefaultIndexOptions(), nil); err != nil {
		t.Fatalf("first IndexCards failed: %v", err)
	}

	stats, err := IndexCards(ctx, cardDocs(7), &mockEmbedder{}, store, DefaultIndexOptions(), nil)
	if err != nil {
		t.Fatalf("second IndexCards failed: %v", err)
	}

	if stats.Chunks != 7 || stats.Skipped != 5 || stats.Inserted != 2 {
		t.Errorf("expected 7 chunks, 5 skipped, 2 inserted, got %+v", stats)
	}
	if n := len(store.texts()); n != 7 {
		t.Errorf("expected 7 stored chunks, got %d", n)
	}
}

func TestIndexCards_NothingNew(t *testing.T) {
	store := &mockVectorStore{}
	ctx := context.Background()
	if _, err := IndexCards(ctx, cardDocs(2), &mockEmbedder{}, store, DefaultIndexOptions(), nil); err != nil {
		t.Fatalf("first IndexCards failed: %v", err)
	}

	embedder := &mockEmbedder{}
	stats, err := IndexCards(ctx, cardDocs(2), embedder, store, DefaultIndexOptions(), nil)
	if err != nil {
		t.Fatalf("second IndexCards failed: %v", err)
	}
	if stats.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", stats.Skipped)
	}
	if embedder.Calls() != 0 {
		t.Errorf("expected no embed calls, got %d", embedder.Calls())
	}
}

func TestIndexCards_ExistenceCheckedInBatches(t *testing.T) {
	var mu sync.Mutex
	var sizes []int
	store := &mockVectorStore{}
	store.queryFunc = func(_ context.Context, ids []string) (map[string]bool, error) {
		mu.Lock()
		sizes = append(sizes, len(ids))
		mu.Unlock()
		return map[string]bool{}, nil
	}

	stats, err := IndexCards(context.Background(), cardDocs(10), &mockEmbedder{}, store, IndexOptions{BatchSize: 4, Workers: 2, SkipExisting: true}, nil)
	if err != nil {
		t.Fatalf("IndexCards failed: %v", err)
	}

	want := []int{4, 4, 2}
	if fmt.Sprint(sizes) != fmt.Sprint(want) {
		t.Errorf("existence checks of sizes %v, want %v", sizes, want)
	}
	if stats.Inserted != 10 {
		t.Errorf("expected 10 inserted, got %d", stats.Inserted)
	}
}

func TestIndexCards_FailedExistenceCheckOnlyAffectsItsBatch(t *testing.T) {
	ctx := context.Background()
	store := &mockVectorStore{}
	if _, err := IndexCards(ctx, cardDocs(6), &mockEmbedder{}, store, DefaultIndexOptions(), nil); err != nil {
		t.Fatalf("first IndexCards failed: %v", err)
	}

	calls := 0
	store.queryFunc = func(_ context.Context, ids []string) (map[string]bool, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("expression too long")
		}
		out := make(map[string]bool, len(ids))
		for _, id := range ids {
			out[id] = true
		}
		return out, nil
	}

	stats, err := IndexCards(ctx, cardDocs(6), &mockEmbedder{}, store, IndexOptions{BatchSize: 2, Workers: 1, SkipExisting: true}, nil)
	if err != nil {
		t.Fatalf("second IndexCards failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 existence checks, got %d", calls)
	}
	if stats.Skipped != 4 || stats.Inserted != 2 {
		t.Errorf("expected 4 skipped and 2 re-inserted, got %+v", stats)
	}
}

func TestIndexCards_ForceReindex(t *testing.T) {
	store := &mockVectorStore{}
	ctx := context.Background()
	if _, err := IndexCards(ctx, cardDocs(5), &mockEmbedder{}, store, DefaultIndexOptions(), nil); err != nil {
		t.Fatalf("first IndexCards failed: %v", err)
	}

	opts := IndexOptions{BatchSize: 2, Workers: 1, ForceReindex: true}
	stats, err := IndexCards(ctx, cardDocs(5), &mockEmbedder{}, store, opts, nil)
	if err != nil {
		t.Fatalf("reindex failed: %v", err)
	}

	if len(store.deleted) != 5 {
		t.Errorf("expected 5 deleted IDs, got %d", len(store.deleted))
	}
	if store.deleteCalls != 3 {
		t.Errorf("expected deletes in 3 batches, got %d", store.deleteCalls)
	}
	if stats.Inserted != 5 || stats.Skipped != 0 {
		t.Errorf("expected 5 inserted and none skipped, got %+v", stats)
	}
}

func TestIndexCards_EmbedFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	embedder := &mockEmbedder{embedFunc: func(context.Context, []string) ([]EmbeddingRecord, error) {
		return nil, boom
	}}
	store := &mockVectorStore{}

	_, err := IndexCards(context.Background(), cardDocs(8), embedder, store, IndexOptions{BatchSize: 2, Workers: 2}, nil)
	if !errors.Is(err, boom) {
		t.Errorf("expected embed error, got %v", err)
	}
	if store.flushes != 0 {
		t.Errorf("expected no flush after failure, got %d", store.flushes)
	}
}

func TestIndexCards_InsertFailure(t *testing.T) {
	store := &mockVectorStore{insertFunc: func(context.Context, []CardChunk) error {
		return ErrInsertFailed
	}}

	_, err := IndexCards(context.Background(), cardDocs(4), &mockEmbedder{}, store, IndexOptions{BatchSize: 2, Workers: 1}, nil)
	if !errors.Is(err, ErrInsertFailed) {
		t.Errorf("expected ErrInsertFailed, got %v", err)
	}
}

func TestIndexCards_Validation(t *testing.T) {
	ctx := context.Background()

	stats, err := IndexCards(ctx, nil, nil, nil, DefaultIndexOptions(), nil)
	if err != nil {
		t.Errorf("empty input should not fail: %v", err)
	}
	if stats.Chunks != 0 {
		t.Errorf("expected no chunks, got %d", stats.Chunks)
	}

	if _, err := IndexCards(ctx, cardDocs(1), nil, &mockVectorStore{}, DefaultIndexOptions(), nil); err == nil {
		t.Error("expected error for nil embedder")
	}
	if _, err := IndexCards(ctx, cardDocs(1), &mockEmbedder{}, nil, DefaultIndexOptions(), nil); err == nil {
		t.Error("expected error for nil vector store")
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	a := ChunkID("Kuriboh", "Card Name: Kuriboh")
	if a != ChunkID("Kuriboh", "Card Name: Kuriboh") {
		t.Error("same input should give the same ID")
	}
	if a == ChunkID("Kuriboh", "Card Name: Winged Kuriboh") {
		t.Error("different text should give a different ID")
	}
	if a == ChunkID("Winged Kuriboh", "Card Name: Kuriboh") {
		t.Error("different card should give a different ID")
	}
	if len(a) != 36 {
		t.Errorf("expected a 36 character UUID, got %q", a)
	}
}

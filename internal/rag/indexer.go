package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// DefaultIndexOptions returns sensible defaults for indexing
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		BatchSize:    32, // Batch size for embedding API calls
		Workers:      4,
		ForceReindex: false,
		SkipExisting: true,
	}
}

// IndexCards embeds card chunks and stores them in the vector store.
// This function:
// 1. Assigns each chunk a deterministic ID
// 2. Drops chunks already stored (SkipExisting) or deletes them first (ForceReindex)
// 3. Embeds batches concurrently on a bounded worker pool
// 4. Inserts each embedded batch and flushes once at the end
func IndexCards(
	ctx context.Context,
	docs []Document,
	embedder Embedder,
	vectorStore VectorStore,
	opts IndexOptions,
	logger *slog.Logger,
) (IndexStats, error) {
	var stats IndexStats
	if len(docs) == 0 {
		return stats, nil
	}
	if embedder == nil {
		return stats, fmt.Errorf("embedder cannot be nil")
	}
	if vectorStore == nil {
		return stats, fmt.Errorf("vector store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultIndexOptions().BatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	chunks := uniqueChunks(docs)
	stats.Chunks = len(chunks)

	if opts.ForceReindex {
		for start := 0; start < len(chunks); start += opts.BatchSize {
			batch := chunks[start:min(start+opts.BatchSize, len(chunks))]
			if err := vectorStore.Delete(ctx, chunkIDs(batch)); err != nil {
				return stats, fmt.Errorf("failed to delete existing chunks: %w", err)
			}
		}
	} else if opts.SkipExisting {
		chunks = filterNewChunks(ctx, chunks, opts.BatchSize, vectorStore, logger)
		stats.Skipped = stats.Chunks - len(chunks)
	}

	if len(chunks) == 0 {
		logger.Info("nothing to index", "chunks", stats.Chunks, "skipped", stats.Skipped)
		return stats, nil
	}

	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return stats, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for start := 0; start < len(chunks); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(chunks))
		batch := chunks[start:end]
		batchStart := start

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}

			if err := embedBatch(ctx, embedder, batch); err != nil {
				fail(fmt.Errorf("failed to generate embeddings for batch starting at %d: %w", batchStart, err))
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if firstErr != nil {
				return
			}
			if err := vectorStore.Insert(ctx, batch); err != nil {
				firstErr = fmt.Errorf("failed to insert batch starting at %d: %w", batchStart, err)
				cancel()
				return
			}
			stats.Inserted += len(batch)
			stats.Batches++
			logger.Debug("indexed batch", "start", batchStart, "size", len(batch))
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("failed to submit batch starting at %d: %w", batchStart, submitErr))
			break
		}
	}

	wg.Wait()
	if firstErr != nil {
		return stats, firstErr
	}

	if err := vectorStore.Flush(ctx); err != nil {
		return stats, fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("indexing complete",
		"chunks", stats.Chunks,
		"inserted", stats.Inserted,
		"skipped", stats.Skipped,
		"batches", stats.Batches)
	return stats, nil
}

// uniqueChunks converts documents to chunks with IDs, dropping exact repeats.
func uniqueChunks(docs []Document) []CardChunk {
	seen := make(map[string]struct{}, len(docs))
	chunks := make([]CardChunk, 0, len(docs))
	for _, d := range docs {
		if d.Text == "" {
			continue
		}
		id := ChunkID(d.CardName, d.Text)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		chunks = append(chunks, CardChunk{ID: id, CardName: d.CardName, Text: d.Text})
	}
	return chunks
}

// embedBatch fills in the Embedding of every chunk in batch.
func embedBatch(ctx context.Context, embedder Embedder, batch []CardChunk) error {
	texts := make([]string, len(batch))
	for i, ch := range batch {
		texts[i] = ch.Text
	}

	records, err := embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(records) != len(batch) {
		return fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbeddingFailed, len(batch), len(records))
	}

	for i := range batch {
		batch[i].Embedding = records[i].Embedding
	}
	return nil
}

// filterNewChunks removes chunks that already exist in the vector store.
// Existence is checked batchSize IDs at a time so no single store query
// carries the whole export.
func filterNewChunks(
	ctx context.Context,
	chunks []CardChunk,
	batchSize int,
	vectorStore VectorStore,
	logger *slog.Logger,
) []CardChunk {
	fresh := make([]CardChunk, 0, len(chunks))
	for start := 0; start < len(chunks); start += batchSize {
		batch := chunks[start:min(start+batchSize, len(chunks))]

		existing, err := vectorStore.Query(ctx, chunkIDs(batch))
		if err != nil {
			// Index this batch; deterministic IDs make the store overwrite or reject duplicates.
			logger.Warn("existence check failed, indexing batch", "start", start, "size", len(batch), "error", err)
			fresh = append(fresh, batch...)
			continue
		}

		for _, ch := range batch {
			if !existing[ch.ID] {
				fresh = append(fresh, ch)
			}
		}
	}
	return fresh
}

func chunkIDs(chunks []CardChunk) []string {
	ids := make([]string, len(chunks))
	for i, ch := range chunks {
		ids[i] = ch.ID
	}
	return ids
}

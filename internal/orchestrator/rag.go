package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Yates-Labs/cardsage/internal/config"
	"github.com/Yates-Labs/cardsage/internal/ingest/cards"
	"github.com/Yates-Labs/cardsage/internal/narrative"
	"github.com/Yates-Labs/cardsage/internal/rag"
)

// RAGPipeline owns the clients behind the recommender: the embedder, the vector
// store and the LLM. Build one per process and share it.
type RAGPipeline struct {
	embedder    rag.Embedder
	vectorStore rag.VectorStore
	recommender *Recommender
	logger      *slog.Logger
}

// NewRAGPipeline connects to the configured vector backend and LLM endpoint.
func NewRAGPipeline(ctx context.Context, cfg config.Config, logger *slog.Logger) (*RAGPipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	embedder, err := rag.NewOpenAIEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	var vectorStore rag.VectorStore
	switch cfg.Backend {
	case config.BackendQdrant:
		vectorStore, err = rag.NewQdrantStore(ctx, cfg.Qdrant)
	default:
		vectorStore, err = rag.NewMilvusStore(ctx, cfg.Milvus)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s vector store: %w", cfg.Backend, err)
	}

	llm, err := narrative.NewOpenAILLM(cfg.LLM)
	if err != nil {
		_ = vectorStore.Close()
		return nil, fmt.Errorf("failed to create LLM: %w", err)
	}

	p, err := NewRAGPipelineFrom(embedder, vectorStore, llm, cfg, logger)
	if err != nil {
		_ = vectorStore.Close()
		return nil, err
	}
	return p, nil
}

// NewRAGPipelineFrom assembles a pipeline from already constructed clients.
func NewRAGPipelineFrom(
	embedder rag.Embedder,
	vectorStore rag.VectorStore,
	llm narrative.LLM,
	cfg config.Config,
	logger *slog.Logger,
) (*RAGPipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	retriever, err := rag.NewRetriever(embedder, vectorStore, cfg.Retrieval.TopK, cfg.Retrieval.ScoreThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	generator := narrative.NewGenerator(llm, cfg.LLM)

	recommender, err := NewRecommender(retriever, generator, cfg.Retrieval,
		WithLogger(logger.With("component", "recommender")))
	if err != nil {
		return nil, fmt.Errorf("failed to create recommender: %w", err)
	}

	return &RAGPipeline{
		embedder:    embedder,
		vectorStore: vectorStore,
		recommender: recommender,
		logger:      logger.With("component", "pipeline"),
	}, nil
}

// Recommender returns the question answering entry point.
func (p *RAGPipeline) Recommender() *Recommender {
	return p.recommender
}

// Answer is shorthand for p.Recommender().Answer.
func (p *RAGPipeline) Answer(ctx context.Context, query string) (*Answer, error) {
	return p.recommender.Answer(ctx, query)
}

// Stats returns backend statistics for the card collection.
func (p *RAGPipeline) Stats(ctx context.Context) (map[string]any, error) {
	return p.vectorStore.GetStats(ctx)
}

// Close releases resources held by the RAG pipeline.
func (p *RAGPipeline) Close() error {
	if p.vectorStore != nil {
		return p.vectorStore.Close()
	}
	return nil
}

// IndexFile loads a card CSV, renders and chunks every card, and indexes the
// chunks into the vector store.
func (p *RAGPipeline) IndexFile(ctx context.Context, path string, opts rag.IndexOptions) (rag.IndexStats, error) {
	loaded, err := cards.LoadFile(path)
	if err != nil {
		return rag.IndexStats{}, err
	}
	p.logger.Info("loaded cards", "path", path, "cards", len(loaded))

	return p.IndexCards(ctx, loaded, opts)
}

// IndexCards renders, chunks and indexes cards.
func (p *RAGPipeline) IndexCards(ctx context.Context, cs []cards.Card, opts rag.IndexOptions) (rag.IndexStats, error) {
	records := cards.BuildRecords(cs)

	chunks, err := cards.NewSplitter(cards.DefaultChunkSize, cards.DefaultChunkOverlap).Split(records)
	if err != nil {
		return rag.IndexStats{}, err
	}
	p.logger.Info("prepared card records", "records", len(records), "chunks", len(chunks))

	docs := make([]rag.Document, len(chunks))
	for i, ch := range chunks {
		docs[i] = rag.Document{CardName: ch.CardName, Text: ch.Text}
	}

	stats, err := rag.IndexCards(ctx, docs, p.embedder, p.vectorStore, opts, p.logger)
	if err != nil {
		return stats, fmt.Errorf("failed to index cards: %w", err)
	}

	p.logger.Info("indexed cards",
		"chunks", stats.Chunks,
		"inserted", stats.Inserted,
		"skipped", stats.Skipped)
	return stats, nil
}

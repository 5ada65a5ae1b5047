package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/cardsage/internal/orchestrator"
	"github.com/Yates-Labs/cardsage/internal/rag"
)

var (
	batchSize int
	workers   int
	reindex   bool
)

var indexCmd = &cobra.Command{
	Use:   "index [cards.csv]",
	Short: "Index a card database export into the vector store",
	Long: `Index a card CSV export (columns name, type, desc and optionally atk, def,
level, rank, linkval, race, attribute, archetype) into the configured vector store.

Each card is rendered as a search-friendly record, split into chunks, embedded
in concurrent batches and inserted. Chunk IDs are derived from the chunk text,
so re-running the command only embeds cards that changed.

Examples:
  cardsage index data/cards.csv
  cardsage index data/cards.csv --batch-size 64 --workers 8
  cardsage index data/cards.csv --reindex`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	defaults := rag.DefaultIndexOptions()
	indexCmd.Flags().IntVar(&batchSize, "batch-size", defaults.BatchSize, "Chunks per embedding request")
	indexCmd.Flags().IntVar(&workers, "workers", defaults.Workers, "Concurrent embedding requests")
	indexCmd.Flags().BoolVar(&reindex, "reindex", false, "Delete and re-embed chunks that are already indexed")
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg := appConfig

	pipeline, err := orchestrator.NewRAGPipeline(ctx, *cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("%s Failed to create RAG pipeline: %w", errorStyle.Render("Error:"), err)
	}
	defer pipeline.Close()

	fmt.Fprintln(out, contextStyle.Render(fmt.Sprintf("→ Indexing %s into %s...", path, cfg.Backend)))

	opts := rag.IndexOptions{
		BatchSize:    batchSize,
		Workers:      workers,
		ForceReindex: reindex,
		SkipExisting: !reindex,
	}
	stats, err := pipeline.IndexFile(ctx, path, opts)
	if err != nil {
		return fmt.Errorf("%s Failed to index cards: %w", errorStyle.Render("Error:"), err)
	}

	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ %d chunks: %d inserted, %d already indexed (%d batches)",
		stats.Chunks, stats.Inserted, stats.Skipped, stats.Batches)))
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/cardsage/internal/api"
	"github.com/Yates-Labs/cardsage/internal/orchestrator"
)

const shutdownTimeout = 10 * time.Second

var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question answering HTTP API",
	Long: `Start an HTTP server exposing:

  POST /api/v1/ask     {"question": "..."}
  GET  /api/v1/stats   vector store statistics
  GET  /healthz        liveness

Examples:
  cardsage serve
  cardsage serve --port 8080 --log-format json`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&port, "port", "", "Listen port (default from API_PORT or 9000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := *appConfig
	if port != "" {
		cfg.APIPort = port
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	pipeline, err := orchestrator.NewRAGPipeline(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create RAG pipeline: %w", err)
	}
	defer pipeline.Close()

	srv := &http.Server{
		Addr: net.JoinHostPort("", cfg.APIPort),
		Handler: api.NewRouter(&api.Deps{
			Answerer: pipeline.Recommender(),
			Stats:    pipeline.Stats,
			Logger:   slog.Default().With("component", "api"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr, "backend", cfg.Backend, "model", cfg.LLM.Model)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

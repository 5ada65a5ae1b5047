package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Yates-Labs/cardsage/internal/orchestrator"
	"github.com/Yates-Labs/cardsage/internal/retrieval"
)

var (
	verbose     bool
	showContext bool
	exportFile  string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about Yu-Gi-Oh! cards",
	Long: `Ask a natural language question about Yu-Gi-Oh! cards.

This command:
1. Searches the card index for the question
2. Falls back to targeted probe searches when the first results look weak
3. Assembles the matching card records as context
4. Generates an answer with the configured LLM

Required environment variables:
  LLM_API_KEY or GROQ_API_KEY   - key for the answer model
  OPENAI_API_KEY                - key for embeddings (or EMBEDDING_API_KEY)
  MILVUS_ADDRESS                - Milvus server address (default: localhost:19530)

Examples:
  cardsage ask "What is the effect of Blue-Eyes White Dragon?"
  cardsage ask "2500+ ATK or higher monsters" --verbose
  cardsage ask "Cards related to Dark Magician" --show-context`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&verbose, "verbose", false, "Show retrieval decisions and probe report")
	askCmd.Flags().BoolVar(&showContext, "show-context", false, "Print the card context sent to the model")
	askCmd.Flags().StringVar(&exportFile, "export", "", "Also write the answer and its retrieval report as JSON: --export <filename>")
}

// Styling
var (
	headerColor   = lipgloss.Color("#F780FF") // Bright pink
	questionColor = lipgloss.Color("#8BE9FD") // Cyan
	answerColor   = lipgloss.Color("#E9E9F4") // Light purple/white
	contextColor  = lipgloss.Color("#6272A4") // Muted purple
	errorColor    = lipgloss.Color("#FF5555") // Red
	successColor  = lipgloss.Color("#50FA7B") // Green

	headerStyle   = lipgloss.NewStyle().Foreground(headerColor).Bold(true)
	questionStyle = lipgloss.NewStyle().Foreground(questionColor).Italic(true)
	answerStyle   = lipgloss.NewStyle().Foreground(answerColor)
	contextStyle  = lipgloss.NewStyle().Foreground(contextColor).Italic(true)
	errorStyle    = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(successColor)
)

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg := appConfig

	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("Question:"))
	fmt.Fprintln(out, questionStyle.Render(question))
	fmt.Fprintln(out)

	if verbose {
		fmt.Fprintln(out, contextStyle.Render(fmt.Sprintf("→ Connecting to %s and %s...", cfg.Backend, cfg.LLM.Model)))
	}

	pipeline, err := orchestrator.NewRAGPipeline(ctx, *cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("%s Failed to create RAG pipeline: %w", errorStyle.Render("Error:"), err)
	}
	defer pipeline.Close()

	ans, err := pipeline.Answer(ctx, question)
	if err != nil {
		return fmt.Errorf("%s Failed to generate answer: %w", errorStyle.Render("Error:"), err)
	}

	if verbose {
		printDiagnostics(out, ans)
	}
	if showContext {
		fmt.Fprintln(out, headerStyle.Render("Context:"))
		fmt.Fprintln(out, contextStyle.Render(ans.Context))
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, headerStyle.Render("Answer:"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, answerStyle.Render(strings.TrimSpace(ans.Text)))
	fmt.Fprintln(out)

	if exportFile != "" {
		if err := exportAnswer(ans, exportFile); err != nil {
			return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
		}
		fmt.Fprintln(out, successStyle.Render("✓ Exported to "+exportFile))
	}

	return nil
}

// answerExport is the JSON form of an answer written by --export.
type answerExport struct {
	*orchestrator.Answer
	Candidates []retrieval.Chunk `json:"candidates"`
	Sources    []string          `json:"sources"`
}

func exportAnswer(ans *orchestrator.Answer, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	return writeAnswerJSON(f, ans)
}

func writeAnswerJSON(w io.Writer, ans *orchestrator.Answer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(answerExport{Answer: ans, Candidates: ans.Candidates, Sources: ans.Sources()}); err != nil {
		return fmt.Errorf("failed to encode answer: %w", err)
	}
	return nil
}

func printDiagnostics(out io.Writer, ans *orchestrator.Answer) {
	fmt.Fprintln(out, contextStyle.Render(fmt.Sprintf("  subject: %q  class: %s", ans.Subject, ans.Class)))

	if !ans.Verdict.Fallback {
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ Primary search was adequate (%d cards)", ans.CandidateCount())))
		fmt.Fprintln(out)
		return
	}

	fmt.Fprintln(out, contextStyle.Render(fmt.Sprintf("→ Fallback search (%s)", ans.Verdict.Reason)))
	for _, a := range ans.Probes.Attempts {
		line := fmt.Sprintf("    %-45q %2d chunks  %s", a.Probe, a.Chunks, a.Duration.Round(time.Millisecond))
		if a.Failed() {
			fmt.Fprintln(out, errorStyle.Render(line+"  "+a.Err))
			continue
		}
		fmt.Fprintln(out, contextStyle.Render(line))
	}

	summary := fmt.Sprintf("✓ %d probes, %d failed, %d skipped, %d cards", len(ans.Probes.Attempts),
		ans.Probes.Failures, ans.Probes.Skipped, ans.CandidateCount())
	if ans.Probes.StoppedEarly {
		summary += " (stopped early)"
	}
	if ans.Probes.Canceled {
		summary += " (canceled)"
	}
	fmt.Fprintln(out, successStyle.Render(summary))
	fmt.Fprintln(out)
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/cardsage/internal/config"
)

var (
	logLevel  string
	logFormat string

	// appConfig is loaded once per invocation before any subcommand runs.
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cardsage",
	Short: "Cardsage - Yu-Gi-Oh! card question answering",
	Long: `Cardsage answers natural-language questions about Yu-Gi-Oh! cards.

It indexes a card database export into a vector store, retrieves the cards
relevant to a question (falling back to targeted probe searches when the first
search looks weak) and asks a language model to answer from those cards only.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (default from LOG_FORMAT or text)")
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	return cfg, nil
}

// initCommand loads the configuration (including .env) and installs the
// default logger from it.
func initCommand(w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(w, cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	appConfig = cfg
	return nil
}

func setupLogging(w io.Writer, levelName, format string) error {
	level, err := config.ParseLogLevel(levelName)
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(firstNonEmpty(format, "text")) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("%w: log format must be text or json", config.ErrInvalidConfig)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

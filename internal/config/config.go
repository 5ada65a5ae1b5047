// Package config loads cardsage settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Yates-Labs/cardsage/internal/narrative"
	"github.com/Yates-Labs/cardsage/internal/rag"
	"github.com/Yates-Labs/cardsage/internal/retrieval"
)

// ErrInvalidConfig is returned when an environment value is malformed or out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Vector store backends.
const (
	BackendMilvus = "milvus"
	BackendQdrant = "qdrant"
)

// Config holds all configuration for the application.
type Config struct {
	LLM       narrative.LLMConfig
	Embedding rag.EmbedderConfig
	Backend   string
	Milvus    rag.MilvusConfig
	Qdrant    rag.QdrantConfig
	Retrieval retrieval.Config
	APIPort   string
	LogLevel  string
	LogFormat string
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		LLM: narrative.DefaultLLMConfig(),
		Embedding: rag.EmbedderConfig{
			Model:     "text-embedding-3-small",
			Dimension: 1536,
		},
		Backend:   BackendMilvus,
		Milvus:    rag.DefaultMilvusConfig(),
		Qdrant:    rag.DefaultQdrantConfig(),
		Retrieval: retrieval.DefaultConfig(),
		APIPort:   "9000",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads a .env file from the working directory if one exists, then
// overlays environment variables on the defaults. Variables already set in
// the environment take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	var errs []error

	cfg.LLM.APIKey = firstEnv("LLM_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY")
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.Temperature = getFloat("LLM_TEMPERATURE", cfg.LLM.Temperature, &errs)
	cfg.LLM.MaxTokens = getInt("LLM_MAX_TOKENS", cfg.LLM.MaxTokens, &errs)

	cfg.Embedding.APIKey = firstEnv("EMBEDDING_API_KEY", "OPENAI_API_KEY")
	cfg.Embedding.BaseURL = getEnv("EMBEDDING_BASE_URL", "")
	cfg.Embedding.Model = getEnv("EMBEDDING_MODEL", cfg.Embedding.Model)
	cfg.Embedding.Dimension = getInt("EMBEDDING_DIMENSION", cfg.Embedding.Dimension, &errs)

	cfg.Backend = strings.ToLower(getEnv("VECTOR_BACKEND", cfg.Backend))

	cfg.Milvus.Address = getEnv("MILVUS_ADDRESS", cfg.Milvus.Address)
	cfg.Milvus.CollectionName = getEnv("MILVUS_COLLECTION", cfg.Milvus.CollectionName)
	cfg.Milvus.Dimension = cfg.Embedding.Dimension

	cfg.Qdrant.URL = getEnv("QDRANT_URL", cfg.Qdrant.URL)
	cfg.Qdrant.CollectionName = getEnv("QDRANT_COLLECTION", cfg.Qdrant.CollectionName)
	cfg.Qdrant.Dimension = cfg.Embedding.Dimension

	cfg.Retrieval.TopK = getInt("RETRIEVAL_TOP_K", cfg.Retrieval.TopK, &errs)
	cfg.Retrieval.ScoreThreshold = getFloat("RETRIEVAL_SCORE_THRESHOLD", cfg.Retrieval.ScoreThreshold, &errs)
	cfg.Retrieval.MaxCandidates = getInt("RETRIEVAL_MAX_CANDIDATES", cfg.Retrieval.MaxCandidates, &errs)
	cfg.Retrieval.EarlyStopPrioritized = getInt("RETRIEVAL_EARLY_STOP", cfg.Retrieval.EarlyStopPrioritized, &errs)
	cfg.Retrieval.AdequacyWindow = getInt("RETRIEVAL_ADEQUACY_WINDOW", cfg.Retrieval.AdequacyWindow, &errs)

	cfg.APIPort = getEnv("API_PORT", cfg.APIPort)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", cfg.LogFormat))

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects non-positive sizes and unknown backends.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMilvus, BackendQdrant:
	default:
		return fmt.Errorf("%w: unknown vector backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive, got %d", ErrInvalidConfig, c.Embedding.Dimension)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("%w: max tokens must be positive, got %d", ErrInvalidConfig, c.LLM.MaxTokens)
	}
	if c.LLM.Temperature < 0 {
		return fmt.Errorf("%w: temperature must not be negative, got %.2f", ErrInvalidConfig, c.LLM.Temperature)
	}
	if err := c.Retrieval.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if port, err := strconv.Atoi(c.APIPort); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("%w: API port must be 1-65535, got %q", ErrInvalidConfig, c.APIPort)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// ParseLogLevel maps debug, info, warn and error to slog levels.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, level)
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv returns the first non-empty variable among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := getEnv(k, ""); v != "" {
			return v
		}
	}
	return ""
}

func getInt(key string, defaultValue int, errs *[]error) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidConfig, key, raw))
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float32, errs *[]error) float32 {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s must be a number, got %q", ErrInvalidConfig, key, raw))
		return defaultValue
	}
	return float32(f)
}

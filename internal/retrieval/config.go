package retrieval

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid retrieval configuration")

// Config holds the thresholds that drive retrieval decisions.
type Config struct {
	// TopK is the number of chunks requested from the retriever per query.
	TopK int

	// ScoreThreshold drops retriever results scoring below it.
	ScoreThreshold float32

	// MaxCandidates bounds the candidate set handed to the context assembler.
	MaxCandidates int

	// EarlyStopPrioritized stops fallback probing once this many chunks
	// containing the subject have been collected.
	EarlyStopPrioritized int

	// AdequacyWindow is how many primary results are inspected for the subject.
	AdequacyWindow int
}

// DefaultConfig returns the defaults used by the card recommender.
func DefaultConfig() Config {
	return Config{
		TopK:                 10,
		ScoreThreshold:       0.15,
		MaxCandidates:        15,
		EarlyStopPrioritized: 3,
		AdequacyWindow:       5,
	}
}

// Validate reports whether every bound is usable.
func (c Config) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top k must be positive, got %d", ErrInvalidConfig, c.TopK)
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("%w: score threshold must be within [0,1], got %.2f", ErrInvalidConfig, c.ScoreThreshold)
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("%w: max candidates must be positive, got %d", ErrInvalidConfig, c.MaxCandidates)
	}
	if c.EarlyStopPrioritized <= 0 {
		return fmt.Errorf("%w: early stop count must be positive, got %d", ErrInvalidConfig, c.EarlyStopPrioritized)
	}
	if c.AdequacyWindow <= 0 {
		return fmt.Errorf("%w: adequacy window must be positive, got %d", ErrInvalidConfig, c.AdequacyWindow)
	}
	return nil
}

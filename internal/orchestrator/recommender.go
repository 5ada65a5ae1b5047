// Package orchestrator wires retrieval, fallback search and answer generation
// into the end-to-end question answering flow.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Yates-Labs/cardsage/internal/contextutil"
	"github.com/Yates-Labs/cardsage/internal/narrative"
	"github.com/Yates-Labs/cardsage/internal/retrieval"
)

var (
	ErrRetrieverRequired = errors.New("retriever is required")
	ErrGeneratorRequired = errors.New("generator is required")
)

// Answer is the result of one question, with the retrieval decisions that
// produced its context.
type Answer struct {
	Query      string                `json:"query"`
	Text       string                `json:"text"`
	Subject    string                `json:"subject"`
	Class      retrieval.QueryClass  `json:"query_class"`
	Verdict    retrieval.Verdict     `json:"verdict"`
	Probes     retrieval.ProbeReport `json:"probes"`
	Candidates []retrieval.Chunk     `json:"-"`
	Context    string                `json:"-"`
	Model      string                `json:"model"`
	Elapsed    time.Duration         `json:"elapsed"`
}

// Recommender answers card questions. It keeps no per-request state and is
// safe for concurrent use.
type Recommender struct {
	retriever retrieval.Retriever
	generator *narrative.Generator
	template  *narrative.PromptTemplate
	config    retrieval.Config
	logger    *slog.Logger
}

// Option configures a Recommender.
type Option func(*Recommender) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recommender) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithPromptTemplate replaces the default answer template.
func WithPromptTemplate(t *narrative.PromptTemplate) Option {
	return func(r *Recommender) error {
		if t == nil {
			return errors.New("prompt template cannot be nil")
		}
		r.template = t
		return nil
	}
}

// NewRecommender creates a recommender over retriever and generator.
func NewRecommender(
	retriever retrieval.Retriever,
	generator *narrative.Generator,
	config retrieval.Config,
	opts ...Option,
) (*Recommender, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	r := &Recommender{
		retriever: retriever,
		generator: generator,
		template:  narrative.NewPromptTemplate(),
		config:    config,
		logger:    slog.Default().With("component", "recommender"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Answer runs the full flow for one question: primary retrieval, the adequacy
// check, fallback probing when needed, context assembly and generation.
// Retrieval failures are logged and never returned; only prompt and generation
// failures are. A blank question skips retrieval and goes straight to the
// generator with the empty-context sentinel.
func (r *Recommender) Answer(ctx context.Context, query string) (*Answer, error) {
	start := time.Now()
	logger := contextutil.LoggerFromContext(ctx, r.logger)

	subject := retrieval.Normalize(query)
	ans := &Answer{
		Query:   query,
		Subject: subject,
		Class:   retrieval.Classify(query),
		Model:   r.generator.Model(),
	}

	if strings.TrimSpace(query) == "" {
		// Nothing to search for; the model answers from the empty context.
		logger.Info("blank question, skipping retrieval")
		return r.generate(ctx, logger, ans, start)
	}

	primary, err := r.retriever.Retrieve(ctx, query)
	if err != nil {
		logger.Warn("primary retrieval failed", "query", query, "error", err)
		primary = nil
	}

	ans.Verdict = retrieval.NeedsFallback(query, subject, primary, r.config)
	if ans.Verdict.Fallback {
		logger.Info("primary retrieval inadequate, probing",
			"query", query,
			"subject", subject,
			"reason", ans.Verdict.Reason,
			"class", ans.Class,
			"primary", len(primary))

		merger := retrieval.NewMerger(subject, r.config.MaxCandidates)
		policy := retrieval.ProbePolicy{
			Retriever: r.retriever,
			EarlyStop: r.config.EarlyStopPrioritized,
			Logger:    logger,
		}
		ans.Probes = policy.Run(ctx, retrieval.ProbesFor(ans.Class, query, subject), merger)
		ans.Candidates = merger.Candidates()
	} else {
		ans.Candidates = retrieval.Dedupe(primary, r.config.MaxCandidates)
	}

	return r.generate(ctx, logger, ans, start)
}

// generate assembles the context from ans.Candidates and fills in the reply.
func (r *Recommender) generate(ctx context.Context, logger *slog.Logger, ans *Answer, start time.Time) (*Answer, error) {
	query := ans.Query
	ans.Context = retrieval.AssembleContext(ans.Candidates)

	prompt, err := r.template.AssemblePrompt(ans.Context, query)
	if err != nil {
		return nil, fmt.Errorf("prompt assembly failed: %w", err)
	}

	reply, err := r.generator.Generate(ctx, query, prompt)
	if err != nil {
		logger.Error("answer generation failed", "query", query, "error", err)
		return nil, err
	}

	ans.Text = reply.Text
	ans.Elapsed = time.Since(start)

	logger.Info("answered",
		"query", query,
		"fallback", ans.Verdict.Fallback,
		"probes", len(ans.Probes.Attempts),
		"candidates", len(ans.Candidates),
		"elapsed", ans.Elapsed)

	return ans, nil
}

// CandidateCount is the number of chunks the context was built from.
func (a *Answer) CandidateCount() int {
	return len(a.Candidates)
}

// Sources lists the distinct queries that contributed candidates, in order.
func (a *Answer) Sources() []string {
	var out []string
	seen := map[string]struct{}{}
	for _, c := range a.Candidates {
		q := strings.TrimSpace(c.SourceQuery)
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}

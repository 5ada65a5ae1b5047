package narrative

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrGenerationFailed = errors.New("answer generation failed")
)

// SystemInstruction is sent with every prompt.
const SystemInstruction = "You are an expert Yu-Gi-Oh! card analyst and strategist."

// Reply is a generated answer to one question.
type Reply struct {
	// Question is the user's question as received
	Question string `json:"question"`

	// Text is the generated answer, verbatim from the model
	Text string `json:"text"`

	// GeneratedAt is when this reply was created
	GeneratedAt time.Time `json:"generated_at"`

	// Model is the LLM model used to generate this reply
	Model string `json:"model"`
}

// Generator produces replies using an LLM.
// It invokes the LLM on an already-rendered prompt.
type Generator struct {
	llm    LLM
	config LLMConfig
}

// NewGenerator creates a generator with the given LLM implementation.
func NewGenerator(llm LLM, config LLMConfig) *Generator {
	return &Generator{
		llm:    llm,
		config: config,
	}
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.config.Model
}

// Generate invokes the LLM with SystemInstruction and an already-rendered prompt.
// It must not perform retrieval or prompt construction.
func (g *Generator) Generate(ctx context.Context, question, prompt string) (*Reply, error) {
	if g.llm == nil {
		return nil, fmt.Errorf("%w: LLM is required", ErrGenerationFailed)
	}
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrGenerationFailed)
	}

	text, err := g.llm.Generate(ctx, SystemInstruction, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: LLM invocation failed: %w", ErrGenerationFailed, err)
	}

	return &Reply{
		Question:    question,
		Text:        text,
		GeneratedAt: time.Now(),
		Model:       g.config.Model,
	}, nil
}

package narrative

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockLLM is a deterministic LLM implementation for testing.
// It returns predictable responses based on prompt content.
type MockLLM struct {
	// Response is the fixed text returned by Generate.
	// If empty, a default response is generated from the prompt.
	Response string

	// Error, if set, is returned by Generate instead of a response.
	Error error

	mu               sync.Mutex
	lastSystemPrompt string
	lastPrompt       string
	calls            int
}

// NewMockLLM creates a mock LLM with the given fixed response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a mock LLM that always returns an error.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Error: err}
}

// Generate returns the configured response or generates a deterministic one.
func (m *MockLLM) Generate(_ context.Context, systemPrompt, prompt string) (string, error) {
	m.mu.Lock()
	m.lastSystemPrompt = systemPrompt
	m.lastPrompt = prompt
	m.calls++
	m.mu.Unlock()

	if m.Error != nil {
		return "", m.Error
	}

	if m.Response != "" {
		return m.Response, nil
	}

	return generateMockResponse(prompt), nil
}

// LastPrompt returns the most recent prompt passed to Generate.
func (m *MockLLM) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

// LastSystemPrompt returns the most recent system instruction passed to Generate.
func (m *MockLLM) LastSystemPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSystemPrompt
}

// Calls returns how many times Generate was invoked.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// generateMockResponse lists the card names found in the prompt context.
func generateMockResponse(prompt string) string {
	names := cardNames(prompt)
	if len(names) == 0 {
		return "I could not find information about that card in the database."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Found %d cards in the provided context: ", len(names)))
	b.WriteString(strings.Join(names, ", "))
	b.WriteString(".")
	return b.String()
}

func cardNames(prompt string) []string {
	const marker = "Card Name:"

	seen := make(map[string]struct{})
	var names []string
	rest := prompt
	for {
		idx := strings.Index(rest, marker)
		if idx < 0 {
			break
		}
		rest = rest[idx+len(marker):]
		line := rest
		if end := strings.IndexAny(line, "\n"); end >= 0 {
			line = line[:end]
		}
		// records are single-line; the name runs up to the repeated name or type
		if end := strings.Index(line, " Card Type:"); end >= 0 {
			line = line[:end]
		}
		name := strings.TrimSpace(line)
		if half := len(name) / 2; half > 0 && len(name)%2 == 1 && name[:half] == name[half+1:] {
			name = name[:half]
		}
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

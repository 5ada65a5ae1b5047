package narrative

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

const (
	contextVar  = "context"
	questionVar = "question"
)

const answerTemplate = `You are an expert Yu-Gi-Oh! card analyst and strategist. Answer the user's question using only the card records below.

Instructions:
1. Work out whether the user wants information about specific cards, recommendations, or a general answer.
2. Read the card records in the context carefully.
3. For card information give the card name and type, a concise effect description and its stats:
   - Monsters: ATK/DEF, Level/Rank/Link, Attribute and Race
   - Spells and Traps: card type and how it is used
4. When recommendations are asked for, suggest exactly 3 different cards from the context that match the request.
5. Never describe cards that are not in the context. If the context does not cover the question, say so.

Filtering rules:
- When the question names an ATK or DEF bound (for example "2500 ATK or higher"), read the numeric values from the records and include only cards that meet it.
- When the question names a level, attribute or type, include only exact matches.
- If no card in the context meets the criteria, state that clearly.

Related cards:
- For "cards related to X", prefer cards whose effect mentions X in quotes, cards that support or combo with X, fusion materials or results involving X, and cards of the same archetype.
- Include X itself and explain how each card connects to it.

Context:
{{.context}}

User's question:
{{.question}}

Your response:
`

// PromptTemplate renders the answer prompt from a context block and a question.
// Each slot is substituted exactly once.
type PromptTemplate struct {
	tmpl prompts.PromptTemplate
}

// NewPromptTemplate returns the default answer template.
func NewPromptTemplate() *PromptTemplate {
	return NewPromptTemplateFrom(answerTemplate)
}

// NewPromptTemplateFrom wraps a custom Go template with {{.context}} and
// {{.question}} slots.
func NewPromptTemplateFrom(text string) *PromptTemplate {
	return &PromptTemplate{
		tmpl: prompts.NewPromptTemplate(text, []string{contextVar, questionVar}),
	}
}

// AssemblePrompt renders the template. The context text is used as given,
// including the empty-result sentinel. A blank question renders as empty.
func (p *PromptTemplate) AssemblePrompt(contextText, question string) (string, error) {
	question = strings.TrimSpace(question)

	out, err := p.tmpl.Format(map[string]any{
		contextVar:  contextText,
		questionVar: question,
	})
	if err != nil {
		return "", fmt.Errorf("render answer prompt: %w", err)
	}
	return out, nil
}

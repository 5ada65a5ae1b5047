package retrieval

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxSubjectTokens = 4

// questionPrefixes is checked in order and at most one prefix is stripped.
// Longer phrases come before the shorter phrases they start with.
var questionPrefixes = []string{
	"what is the fusion material of",
	"what are the fusion materials of",
	"what is the effect of",
	"fusion materials for",
	"fusion material for",
	"information about",
	"cards related to",
	"details about",
	"tell me about",
	"search for",
	"what does",
	"what are",
	"what is",
	"find",
}

const fusionMaterialPhrase = "fusion material"

// Normalize extracts the subject (usually a card name) from a natural-language
// query. The result is lowercase and may be empty.
func Normalize(query string) string {
	cleaned := strings.ToLower(strings.TrimSpace(query))
	cleaned = stripQuestionPrefix(cleaned)
	cleaned = strings.TrimSpace(strings.TrimRight(cleaned, "?"))

	words := strings.Fields(cleaned)
	if len(words) <= maxSubjectTokens {
		return cleaned
	}

	if slices.Contains(words[:maxSubjectTokens], "fusion") &&
		slices.Contains(words[:min(6, len(words))], "material") {
		if idx := strings.Index(cleaned, fusionMaterialPhrase); idx >= 0 {
			rest := strings.TrimSpace(cleaned[idx+len(fusionMaterialPhrase):])
			return strings.TrimSpace(strings.TrimRight(rest, "?"))
		}
	}

	return strings.Join(words[:maxSubjectTokens], " ")
}

// stripQuestionPrefix removes the first matching prefix when it ends on a word
// boundary, so "find" never eats the start of "finding".
func stripQuestionPrefix(s string) string {
	for _, prefix := range questionPrefixes {
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		rest := s[len(prefix):]
		if r, _ := utf8.DecodeRuneInString(rest); rest != "" && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			continue
		}
		return strings.TrimSpace(rest)
	}
	return s
}

package retrieval

import "strings"

// Reasons reported in a Verdict.
const (
	ReasonTooFewResults  = "too_few_results"
	ReasonSubjectMissing = "subject_missing"
	ReasonFusionMaterial = "fusion_material"
	ReasonAttackValue    = "attack_value"
)

const minPrimaryResults = 2

// Verdict is the adequacy judge's decision about a primary retrieval.
type Verdict struct {
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
}

// NeedsFallback decides whether the primary results can be used as they are.
// The first rule that fires determines the reason. Fusion material and attack
// queries always fall back because the retriever cannot compare numbers or
// confirm material lists on its own.
func NeedsFallback(query, subject string, primary []Chunk, cfg Config) Verdict {
	if len(primary) < minPrimaryResults {
		return Verdict{Fallback: true, Reason: ReasonTooFewResults}
	}

	if subject != "" && !anyContains(primary, subject, cfg.AdequacyWindow) {
		return Verdict{Fallback: true, Reason: ReasonSubjectMissing}
	}

	q := strings.ToLower(query)
	if strings.Contains(q, fusionMaterialPhrase) {
		return Verdict{Fallback: true, Reason: ReasonFusionMaterial}
	}
	if mentionsAttack(q) {
		return Verdict{Fallback: true, Reason: ReasonAttackValue}
	}

	return Verdict{}
}

// anyContains checks the first window chunks. A non-positive window checks all.
func anyContains(chunks []Chunk, subject string, window int) bool {
	if window > 0 && window < len(chunks) {
		chunks = chunks[:window]
	}
	needle := strings.ToLower(subject)
	for _, c := range chunks {
		if containsFold(c.Content, needle) {
			return true
		}
	}
	return false
}

// containsFold expects needle to be lowercased already.
func containsFold(content, needle string) bool {
	return strings.Contains(strings.ToLower(content), needle)
}

package retrieval

import "strings"

// attackTierProbes match the tier phrases written into card records at
// indexing time, strongest tier first.
var attackTierProbes = []string{
	"4000+ ATK High Power Monster",
	"3000+ ATK High Power Monster",
	"2500+ ATK Strong Monster",
	"2000+ ATK Moderate Power Monster",
}

var attackValueProbes = []string{
	"ATK 3000",
	"ATK 2500",
	"ATK 4000",
}

// FallbackProbes classifies the query and returns its ordered probe list.
func FallbackProbes(query, subject string) []string {
	return ProbesFor(Classify(query), query, subject)
}

// ProbesFor returns the ordered probe list for an already classified query.
// Probes are ordered from most to least specific. The list may contain blank
// or repeated entries when the subject is empty; the prober skips those.
func ProbesFor(class QueryClass, query, subject string) []string {
	switch class {
	case AttackValueQuery:
		probes := make([]string, 0, len(attackTierProbes)+1+len(attackValueProbes))
		probes = append(probes, attackTierProbes...)
		probes = append(probes, query)
		return append(probes, attackValueProbes...)

	case RelationshipQuery:
		return []string{
			`mentions "` + subject + `"`,
			`"` + subject + `" in effect`,
			`supports "` + subject + `"`,
			"archetype " + subject,
			subject + " support",
			subject + " synergy",
			"Card Name: " + subject,
			subject,
			subject + " combo",
			query,
		}

	default:
		return []string{
			"Card Name: " + subject + " " + subject,
			subject + " " + subject,
			"Card Name: " + subject,
			subject,
			"Find " + subject,
			"Search for " + subject,
			query,
			strings.ReplaceAll(subject, "dragon", "Dragon"),
			strings.ReplaceAll(subject, " ", ""),
		}
	}
}

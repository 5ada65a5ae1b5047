package retrieval

import "strings"

// QueryClass selects which family of fallback probes is generated for a query.
type QueryClass string

const (
	// AttackValueQuery asks about ATK ranges or thresholds.
	AttackValueQuery QueryClass = "attack_value"
	// RelationshipQuery asks for cards related to a subject.
	RelationshipQuery QueryClass = "relationship"
	// NameQuery is the default: the query names a card.
	NameQuery QueryClass = "name"
)

// String returns the class name.
func (c QueryClass) String() string {
	return string(c)
}

// Classify derives the QueryClass from keyword presence. The first matching
// class wins, attack value before relationship.
func Classify(query string) QueryClass {
	q := strings.ToLower(query)
	switch {
	case mentionsAttack(q):
		return AttackValueQuery
	case strings.Contains(q, "related to"), strings.Contains(q, "cards related"):
		return RelationshipQuery
	default:
		return NameQuery
	}
}

// mentionsAttack expects a lowercased query.
func mentionsAttack(q string) bool {
	return strings.Contains(q, "atk") || strings.Contains(q, "attack")
}

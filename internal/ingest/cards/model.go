package cards

import "strings"

// Card is one cleaned row of the card database export.
// Numeric fields are zero when absent or unparsable.
type Card struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Desc      string `json:"desc"`
	ATK       int    `json:"atk"`
	DEF       int    `json:"def"`
	Level     int    `json:"level"`
	Rank      int    `json:"rank"`
	LinkVal   int    `json:"linkval"`
	Race      string `json:"race"`
	Attribute string `json:"attribute"`
	Archetype string `json:"archetype"`
}

var monsterKeywords = []string{
	"Monster", "Fusion", "Synchro", "Xyz", "Link",
	"Pendulum", "Ritual", "Spirit", "Toon", "Union",
}

// IsMonster reports whether the card type names a monster frame.
func (c Card) IsMonster() bool {
	for _, kw := range monsterKeywords {
		if strings.Contains(c.Type, kw) {
			return true
		}
	}
	return false
}

package cards

import (
	"fmt"
	"regexp"
	"strings"
)

// minRecordLength drops records too short to carry anything searchable.
const minRecordLength = 20

// atkTiers must stay in sync with the attack probes used at query time.
var atkTiers = []struct {
	min    int
	phrase string
}{
	{4000, "4000+ ATK High Power Monster"},
	{3000, "3000+ ATK High Power Monster"},
	{2500, "2500+ ATK Strong Monster"},
	{2000, "2000+ ATK Moderate Power Monster"},
}

var relationshipKeywords = []struct {
	keyword string
	action  string
}{
	{"support", "supports"},
	{"synergy", "synergy"},
	{"combo", "combo"},
	{"archetype", "archetype"},
	{"series", "series"},
	{"summon", "summons"},
	{"special summon", "special summons"},
}

var quotedName = regexp.MustCompile(`"+([^"]+)"+`)

// TierPhrase returns the attack tier phrase for atk, or "" below 2000.
func TierPhrase(atk int) string {
	for _, t := range atkTiers {
		if atk >= t.min {
			return t.phrase
		}
	}
	return ""
}

// BuildRecord renders a card as one line of text. The card name is repeated
// and stats are spelled out several ways so that keyword and tier probes can
// reach it through similarity search.
func BuildRecord(c Card) string {
	parts := []string{
		"Card Name: " + c.Name,
		c.Name,
		"Card Type: " + c.Type,
	}

	if c.Race != "" {
		parts = append(parts, "Race: "+c.Race)
	}
	if c.Attribute != "" {
		parts = append(parts, "Attribute: "+c.Attribute)
	}

	if c.IsMonster() {
		if c.ATK != 0 {
			parts = append(parts,
				fmt.Sprintf("%s ATK: %d", c.Name, c.ATK),
				fmt.Sprintf("ATK %d", c.ATK))
			if tier := TierPhrase(c.ATK); tier != "" {
				parts = append(parts, tier)
			}
		}
		if c.DEF != 0 {
			parts = append(parts,
				fmt.Sprintf("%s DEF: %d", c.Name, c.DEF),
				fmt.Sprintf("DEF %d", c.DEF))
		}
		switch {
		case c.Level != 0:
			parts = append(parts, fmt.Sprintf("Level: %d", c.Level))
		case c.Rank != 0:
			parts = append(parts, fmt.Sprintf("Rank: %d", c.Rank))
		case c.LinkVal != 0:
			parts = append(parts, fmt.Sprintf("Link: %d", c.LinkVal))
		}
	}

	if c.Archetype != "" {
		parts = append(parts, "Archetype: "+c.Archetype)
	}

	if c.Desc != "" {
		parts = append(parts, "Effect: "+c.Desc)
		parts = append(parts, relationshipParts(c)...)
	}

	parts = append(parts, "Search for "+c.Name, "Find "+c.Name)
	return strings.Join(parts, " ")
}

func relationshipParts(c Card) []string {
	var parts []string

	if strings.Contains(c.Type, "Fusion Monster") &&
		(strings.Contains(c.Desc, " + ") || strings.Contains(c.Desc, `+"`)) {
		parts = append(parts,
			"Fusion Materials: "+c.Desc,
			"Fusion Material: "+c.Name)
	}

	for _, m := range MentionedCards(c) {
		parts = append(parts, "mentions "+m, "supports "+m, "synergy with "+m)
	}

	desc := strings.ToLower(c.Desc)
	for _, rk := range relationshipKeywords {
		if strings.Contains(desc, rk.keyword) {
			parts = append(parts, rk.action+" other cards", "card relationship")
		}
	}
	return parts
}

// MentionedCards returns the quoted card names in the card's effect text,
// excluding the card itself, in order of first appearance.
func MentionedCards(c Card) []string {
	var names []string
	seen := map[string]struct{}{}
	for _, m := range quotedName.FindAllStringSubmatch(c.Desc, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" || name == c.Name {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// BuildRecords renders every named card and drops records of minRecordLength
// characters or fewer.
func BuildRecords(cs []Card) []Record {
	out := make([]Record, 0, len(cs))
	for _, c := range cs {
		if c.Name == "" {
			continue
		}
		text := BuildRecord(c)
		if len(text) <= minRecordLength {
			continue
		}
		out = append(out, Record{CardName: c.Name, Text: text})
	}
	return out
}

// Record is the rendered text of one card.
type Record struct {
	CardName string
	Text     string
}

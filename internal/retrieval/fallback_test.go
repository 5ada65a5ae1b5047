package retrieval

import (
	"slices"
	"testing"
)

func assertProbes(t *testing.T, got, want []string) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("probes mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestFallbackProbes_AttackValue(t *testing.T) {
	query := "2500+ ATK or higher monsters"
	probes := FallbackProbes(query, Normalize(query))

	assertProbes(t, probes, []string{
		"4000+ ATK High Power Monster",
		"3000+ ATK High Power Monster",
		"2500+ ATK Strong Monster",
		"2000+ ATK Moderate Power Monster",
		query,
		"ATK 3000",
		"ATK 2500",
		"ATK 4000",
	})
}

func TestFallbackProbes_Relationship(t *testing.T) {
	probes := FallbackProbes("Cards related to Blue-Eyes", "blue-eyes")

	assertProbes(t, probes, []string{
		`mentions "blue-eyes"`,
		`"blue-eyes" in effect`,
		`supports "blue-eyes"`,
		"archetype blue-eyes",
		"blue-eyes support",
		"blue-eyes synergy",
		"Card Name: blue-eyes",
		"blue-eyes",
		"blue-eyes combo",
		"Cards related to Blue-Eyes",
	})
}

func TestFallbackProbes_Name(t *testing.T) {
	probes := FallbackProbes("Blue-Eyes White Dragon", "blue-eyes white dragon")

	assertProbes(t, probes, []string{
		"Card Name: blue-eyes white dragon blue-eyes white dragon",
		"blue-eyes white dragon blue-eyes white dragon",
		"Card Name: blue-eyes white dragon",
		"blue-eyes white dragon",
		"Find blue-eyes white dragon",
		"Search for blue-eyes white dragon",
		"Blue-Eyes White Dragon",
		"blue-eyes white Dragon",
		"blue-eyeswhitedragon",
	})
}

func TestFallbackProbes_Deterministic(t *testing.T) {
	q := "tell me about Dark Magician"
	assertProbes(t, FallbackProbes(q, Normalize(q)), FallbackProbes(q, Normalize(q)))
}

package retrieval

import (
	"fmt"
	"testing"
)

func chunks(contents ...string) []Chunk {
	out := make([]Chunk, len(contents))
	for i, c := range contents {
		out[i] = Chunk{Content: c, Score: 0.9 - float32(i)*0.01}
	}
	return out
}

func TestNeedsFallback(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name    string
		query   string
		subject string
		primary []Chunk
		want    Verdict
	}{
		{
			name:    "no results",
			query:   "Dark Magician",
			subject: "dark magician",
			want:    Verdict{Fallback: true, Reason: ReasonTooFewResults},
		},
		{
			name:    "single result",
			query:   "Dark Magician",
			subject: "dark magician",
			primary: chunks("Card Name: Dark Magician"),
			want:    Verdict{Fallback: true, Reason: ReasonTooFewResults},
		},
		{
			name:    "subject absent from window",
			query:   "Dark Magician",
			subject: "dark magician",
			primary: chunks("a", "b", "c", "d", "e", "Card Name: Dark Magician"),
			want:    Verdict{Fallback: true, Reason: ReasonSubjectMissing},
		},
		{
			name:    "subject present case insensitive",
			query:   "Dark Magician",
			subject: "dark magician",
			primary: chunks("Card Name: Kuriboh", "Card Name: DARK MAGICIAN"),
			want:    Verdict{},
		},
		{
			name:    "empty subject skips presence check",
			query:   "something",
			subject: "",
			primary: chunks("x", "y"),
			want:    Verdict{},
		},
		{
			name:    "fusion material forced",
			query:   "What is the Fusion Material of Dragon Master Knight",
			subject: "dragon master knight",
			primary: chunks("Card Name: Dragon Master Knight", "Dragon Master Knight"),
			want:    Verdict{Fallback: true, Reason: ReasonFusionMaterial},
		},
		{
			name:    "attack forced",
			query:   "monsters with 3000 attack",
			subject: "monsters with 3000 attack",
			primary: chunks("monsters with 3000 attack", "Monsters With 3000 Attack"),
			want:    Verdict{Fallback: true, Reason: ReasonAttackValue},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsFallback(tt.query, tt.subject, tt.primary, cfg); got != tt.want {
				t.Errorf("NeedsFallback = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNeedsFallback_ForcedRegardlessOfResults(t *testing.T) {
	cfg := DefaultConfig()
	queries := []string{
		"2500+ ATK or higher monsters",
		"highest attack dragon",
		"fusion material for Blue-Eyes Ultimate Dragon",
	}

	for _, q := range queries {
		subject := Normalize(q)
		for n := 0; n <= 8; n++ {
			primary := make([]Chunk, n)
			for i := range primary {
				primary[i] = Chunk{Content: fmt.Sprintf("%s record %d", subject, i)}
			}
			if v := NeedsFallback(q, subject, primary, cfg); !v.Fallback {
				t.Errorf("query %q with %d results should fall back", q, n)
			}
		}
	}
}

func TestNeedsFallback_WindowFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AdequacyWindow = 2
	primary := chunks("a", "b", "Card Name: Kuriboh")

	if v := NeedsFallback("Kuriboh", "kuriboh", primary, cfg); v.Reason != ReasonSubjectMissing {
		t.Errorf("window 2: expected %s, got %+v", ReasonSubjectMissing, v)
	}

	cfg.AdequacyWindow = 3
	if v := NeedsFallback("Kuriboh", "kuriboh", primary, cfg); v.Fallback {
		t.Errorf("window 3: expected no fallback, got %+v", v)
	}
}

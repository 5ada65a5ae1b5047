package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/Yates-Labs/cardsage/internal/config"
	"github.com/Yates-Labs/cardsage/internal/narrative"
	"github.com/Yates-Labs/cardsage/internal/rag"
)

// textEmbedder encodes each text as a one-element vector holding its position
// in a shared table, so memStore can score by words instead of geometry.
type textEmbedder struct {
	mu    sync.Mutex
	texts []string
}

func (e *textEmbedder) Embed(_ context.Context, texts []string) ([]rag.EmbeddingRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]rag.EmbeddingRecord, len(texts))
	for i, t := range texts {
		e.texts = append(e.texts, t)
		out[i] = rag.EmbeddingRecord{Text: t, Embedding: []float32{float32(len(e.texts) - 1)}, Index: i, Model: "text"}
	}
	return out, nil
}

func (e *textEmbedder) lookup(v []float32) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.texts[int(v[0])]
}

func (e *textEmbedder) GetModel() string  { return "text" }
func (e *textEmbedder) GetDimension() int { return 1 }

// memStore scores a chunk by the share of query words its text contains.
type memStore struct {
	embedder *textEmbedder

	mu     sync.Mutex
	chunks map[string]rag.CardChunk
	closed bool
}

func newMemStore(e *textEmbedder) *memStore {
	return &memStore{embedder: e, chunks: map[string]rag.CardChunk{}}
}

func (s *memStore) Insert(_ context.Context, chunks []rag.CardChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.chunks[c.ID] = c
	}
	return nil
}

func (s *memStore) Flush(context.Context) error { return nil }

func (s *memStore) Search(_ context.Context, v []float32, topK int, opts *rag.SearchOptions) ([]rag.ContextChunk, error) {
	words := strings.Fields(strings.ToLower(s.embedder.lookup(v)))

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []rag.ContextChunk
	for _, c := range s.chunks {
		text := strings.ToLower(c.Text)
		hits := 0
		for _, w := range words {
			if strings.Contains(text, w) {
				hits++
			}
		}
		score := float32(hits) / float32(max(len(words), 1))
		if opts != nil && score < opts.MinScore {
			continue
		}
		out = append(out, rag.ContextChunk{ID: c.ID, CardName: c.CardName, Text: c.Text, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (s *memStore) Query(_ context.Context, ids []string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := map[string]bool{}
	for _, id := range ids {
		if _, ok := s.chunks[id]; ok {
			found[id] = true
		}
	}
	return found, nil
}

func (s *memStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.chunks, id)
	}
	return nil
}

func (s *memStore) GetStats(context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{"row_count": len(s.chunks)}, nil
}

func (s *memStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

const pipelineCSV = `name,type,desc,atk,def,level,race,attribute,archetype
Blue-Eyes White Dragon,Normal Monster,This legendary dragon is a powerful engine of destruction.,3000,2500,8,Dragon,LIGHT,Blue-Eyes
Dark Magician,Normal Monster,The ultimate wizard in terms of attack and defense.,2500,2100,7,Spellcaster,DARK,Dark Magician
Kuriboh,Effect Monster,"During damage calculation, you can discard this card; you take no battle damage.",300,200,1,Fiend,DARK,
Pot of Greed,Normal Spell,Draw 2 cards.,None,None,None,Normal,None,None
`

func newTestPipeline(t *testing.T, llm narrative.LLM) (*RAGPipeline, *memStore) {
	t.Helper()
	emb := &textEmbedder{}
	store := newMemStore(emb)

	p, err := NewRAGPipelineFrom(emb, store, llm, config.Default(), nil)
	if err != nil {
		t.Fatalf("NewRAGPipelineFrom failed: %v", err)
	}
	return p, store
}

func TestRAGPipeline_IndexFileAndAnswer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.csv")
	if err := os.WriteFile(path, []byte(pipelineCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	llm := narrative.NewMockLLM("")
	p, store := newTestPipeline(t, llm)
	ctx := context.Background()

	stats, err := p.IndexFile(ctx, path, rag.DefaultIndexOptions())
	if err != nil {
		t.Fatalf("IndexFile failed: %v", err)
	}
	if stats.Chunks != 4 || stats.Inserted != 4 {
		t.Errorf("expected 4 chunks inserted, got %+v", stats)
	}

	// Same file again: every chunk ID already exists.
	again, err := p.IndexFile(ctx, path, rag.DefaultIndexOptions())
	if err != nil {
		t.Fatalf("second IndexFile failed: %v", err)
	}
	if again.Skipped != 4 || again.Inserted != 0 {
		t.Errorf("expected re-index to skip everything, got %+v", again)
	}

	st, err := p.Stats(ctx)
	if err != nil || st["row_count"] != 4 {
		t.Errorf("unexpected stats %v, %v", st, err)
	}

	ans, err := p.Answer(ctx, "Cards with 2500+ ATK")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !ans.Verdict.Fallback {
		t.Error("attack questions always fall back")
	}
	if !strings.Contains(ans.Context, "Card Name: Blue-Eyes White Dragon") {
		t.Errorf("context should include the 3000 ATK card: %q", ans.Context)
	}
	if !strings.Contains(ans.Text, "Blue-Eyes White Dragon") {
		t.Errorf("mock answer should name the retrieved cards: %q", ans.Text)
	}

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if !store.closed {
		t.Error("Close should close the vector store")
	}
}

func TestRAGPipeline_IndexFileMissing(t *testing.T) {
	p, _ := newTestPipeline(t, narrative.NewMockLLM("ok"))

	if _, err := p.IndexFile(context.Background(), filepath.Join(t.TempDir(), "none.csv"), rag.DefaultIndexOptions()); err == nil {
		t.Error("expected error for a missing card file")
	}
}

func TestNewRAGPipeline_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = "sqlite"

	if _, err := NewRAGPipeline(context.Background(), cfg, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}

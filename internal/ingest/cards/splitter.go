package cards

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 200

	metaCardName = "card_name"
)

// Chunk is a piece of a card record small enough to embed.
type Chunk struct {
	CardName string
	Text     string
}

// Splitter breaks long card records into overlapping chunks.
type Splitter struct {
	splitter textsplitter.RecursiveCharacter
}

// NewSplitter returns a recursive character splitter that prefers paragraph,
// line and word boundaries. Non-positive arguments use the defaults.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = min(DefaultChunkOverlap, chunkSize/4)
	}
	return &Splitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
	}
}

// Split chunks every record, keeping the card name on each chunk.
func (s *Splitter) Split(records []Record) ([]Chunk, error) {
	if len(records) == 0 {
		return nil, nil
	}

	texts := make([]string, len(records))
	metas := make([]map[string]any, len(records))
	for i, r := range records {
		texts[i] = r.Text
		metas[i] = map[string]any{metaCardName: r.CardName}
	}

	docs, err := textsplitter.CreateDocuments(s.splitter, texts, metas)
	if err != nil {
		return nil, fmt.Errorf("split card records: %w", err)
	}

	chunks := make([]Chunk, 0, len(docs))
	for _, d := range docs {
		name, _ := d.Metadata[metaCardName].(string)
		chunks = append(chunks, Chunk{CardName: name, Text: d.PageContent})
	}
	return chunks, nil
}

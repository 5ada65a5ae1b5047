package retrieval

import "strings"

// Merger accumulates retrieval batches into a candidate set. Chunks containing
// the subject are prioritized and always precede the rest; duplicates are
// detected by content hash.
//
// A Merger is not safe for concurrent use. Create one per request.
type Merger struct {
	needle string
	max    int

	prioritized    []Chunk
	prioritizedSet map[contentKey]struct{}
	seen           []Chunk
}

// NewMerger returns a Merger for subject whose candidate set is capped at max.
// An empty subject disables prioritization. A non-positive max disables the cap.
func NewMerger(subject string, max int) *Merger {
	return &Merger{
		needle:         strings.ToLower(strings.TrimSpace(subject)),
		max:            max,
		prioritizedSet: make(map[contentKey]struct{}),
	}
}

// Add folds one batch into the merger, in batch order.
func (m *Merger) Add(batch []Chunk) {
	for _, c := range batch {
		if m.needle != "" && containsFold(c.Content, m.needle) {
			k := keyOf(c)
			if _, ok := m.prioritizedSet[k]; !ok {
				m.prioritizedSet[k] = struct{}{}
				m.prioritized = append(m.prioritized, c)
			}
		}
		m.seen = append(m.seen, c)
	}
}

// PrioritizedCount is the number of distinct chunks containing the subject.
func (m *Merger) PrioritizedCount() int {
	return len(m.prioritized)
}

// Candidates returns the deduplicated, ordered and capped candidate set.
// The first occurrence of a content wins, so its score and source query are kept.
func (m *Merger) Candidates() []Chunk {
	size := len(m.prioritized) + len(m.seen)
	if m.max > 0 && size > m.max {
		size = m.max
	}
	out := make([]Chunk, 0, size)
	emitted := make(map[contentKey]struct{}, size)

	emit := func(c Chunk) bool {
		if m.max > 0 && len(out) >= m.max {
			return false
		}
		k := keyOf(c)
		if _, dup := emitted[k]; dup {
			return true
		}
		emitted[k] = struct{}{}
		out = append(out, c)
		return true
	}

	for _, c := range m.prioritized {
		if !emit(c) {
			return out
		}
	}
	for _, c := range m.seen {
		if !emit(c) {
			return out
		}
	}
	return out
}

// Merge runs batches through a fresh Merger and returns its candidate set.
func Merge(subject string, batches [][]Chunk, max int) []Chunk {
	m := NewMerger(subject, max)
	for _, b := range batches {
		m.Add(b)
	}
	return m.Candidates()
}

// Dedupe keeps the first chunk for each content, in order, capped at max.
func Dedupe(chunks []Chunk, max int) []Chunk {
	return Merge("", [][]Chunk{chunks}, max)
}

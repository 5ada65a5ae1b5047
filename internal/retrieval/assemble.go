package retrieval

import "strings"

// NoContextSentinel is the context handed to the generator when nothing was
// retrieved, so the model answers that it has no information.
const NoContextSentinel = "No specific card information found in the database."

const contextSeparator = "\n\n"

// AssembleContext joins chunk contents with a blank line, in order.
func AssembleContext(chunks []Chunk) string {
	if len(chunks) == 0 {
		return NoContextSentinel
	}

	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString(contextSeparator)
		}
		b.WriteString(c.Content)
	}
	return b.String()
}

package chunker

import (
	"strings"

	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
)

// Chunker cuts text into fixed-size windows measured in characters (runes).
// Consecutive windows share exactly overlap characters.
type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) (*Chunker, error) {
	if size <= overlap || overlap < 0 {
		return nil, errorModel.ErrInvalidChunkWindow
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Split emits text[start:start+size] and advances start by size-overlap until start
// passes the end of the text. The tail window may be shorter than size and, near the end,
// may lie entirely inside the previous window.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	chunks := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := min(start+c.size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Clean turns newlines into spaces and collapses every whitespace run to a single space.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(strings.ReplaceAll(text, "\n", " ")), " ")
}

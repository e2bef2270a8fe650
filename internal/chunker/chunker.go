package chunker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"

	"document-reasoner/internal/models"
)

// ErrEmptyDocument is returned when splitting yields zero non-empty chunks.
var ErrEmptyDocument = errors.New("document produced no non-empty chunks")

const previewLength = 100

// Separators are tried coarsest first; a finer one is only used where a
// candidate segment still exceeds the chunk size.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// LenFunc measures text length in tokens. The same function is used for
// split sizing and for the per-chunk token counts, so the two never drift.
type LenFunc func(string) int

type Chunker struct {
	chunkSize    int
	chunkOverlap int
	lenFunc      LenFunc
}

// New builds a Chunker measuring length with the cl100k_base tokenizer, the
// encoding used by the embedding models this service talks to.
func New(chunkSize, chunkOverlap int) (*Chunker, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer: %w", err)
	}
	return NewWithLenFunc(chunkSize, chunkOverlap, func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}), nil
}

// NewWithLenFunc builds a Chunker with a caller-supplied token counter.
func NewWithLenFunc(chunkSize, chunkOverlap int, lenFunc LenFunc) *Chunker {
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		lenFunc:      lenFunc,
	}
}

// TokenCount reports the token length of text under the chunker's tokenizer.
func (c *Chunker) TokenCount(text string) int {
	return c.lenFunc(text)
}

// Split divides documentText into overlapping token-bounded chunks with
// sequential ids and positional metadata.
func (c *Chunker) Split(documentText string) ([]models.Chunk, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.chunkSize),
		textsplitter.WithChunkOverlap(c.chunkOverlap),
		textsplitter.WithSeparators(separators),
		textsplitter.WithLenFunc(c.lenFunc),
	)

	parts, err := splitter.SplitText(documentText)
	if err != nil {
		return nil, fmt.Errorf("splitting document: %w", err)
	}

	chunks := make([]models.Chunk, 0, len(parts))
	for _, part := range parts {
		text := strings.TrimSpace(part)
		if text == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			ID:           len(chunks),
			Text:         text,
			TokenCount:   c.lenFunc(text),
			CharLength:   len(text),
			SourceOffset: sourceOffset(documentText, text),
			Preview:      preview(text),
		})
	}

	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}

	log.Debug().Int("chunks", len(chunks)).Int("chunk_size", c.chunkSize).Int("chunk_overlap", c.chunkOverlap).Msg("split document")
	return chunks, nil
}

// sourceOffset locates the chunk in the source by its leading slice. -1 when
// the splitter rewrote the boundary beyond recognition.
func sourceOffset(document, chunk string) int {
	probe := chunk
	if len(probe) > 50 {
		probe = probe[:50]
	}
	return strings.Index(document, probe)
}

func preview(text string) string {
	if len(text) > previewLength {
		return text[:previewLength] + "..."
	}
	return text
}

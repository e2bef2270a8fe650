package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"document-reasoner/internal/models"
	"document-reasoner/internal/vectorstore"
)

var (
	// ErrNotReady is returned when retrieval is attempted before a document
	// was successfully ingested.
	ErrNotReady = errors.New("vector store not initialized: ingest a document first")
	// ErrIngest wraps the first component failure during document ingest.
	ErrIngest = errors.New("document ingest failed")
)

// degradeTopN is how many unfiltered candidates are returned when nothing
// clears the similarity threshold.
const degradeTopN = 3

// Chunker is the splitting dependency of the retriever.
type Chunker interface {
	Split(documentText string) ([]models.Chunk, error)
}

// Embedder is the slice of the embedding client the retriever needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Retriever holds one document's chunks and similarity index. It has two
// states: empty, and ready after a successful CreateVectorStore. Construct a
// fresh Retriever per request; instances are not safe for concurrent use and
// must never be shared across requests handling different documents.
type Retriever struct {
	chunker   Chunker
	embedder  Embedder
	threshold float32
	topK      int

	chunks []models.Chunk
	index  *vectorstore.Index
}

func New(chunker Chunker, embedder Embedder, threshold float32, topK int) *Retriever {
	if topK <= 0 {
		topK = degradeTopN
	}
	return &Retriever{
		chunker:   chunker,
		embedder:  embedder,
		threshold: threshold,
		topK:      topK,
	}
}

// Ready reports whether a document has been ingested.
func (r *Retriever) Ready() bool {
	return r.index != nil
}

// ChunkCount returns the number of chunks in the current session.
func (r *Retriever) ChunkCount() int {
	return len(r.chunks)
}

// CreateVectorStore chunks, embeds and indexes documentText, replacing any
// previously held document. The prior document is discarded up front: a
// failed ingest leaves the retriever empty, never Ready over stale chunks.
func (r *Retriever) CreateVectorStore(ctx context.Context, documentText string) error {
	r.chunks = nil
	r.index = nil

	chunks, err := r.chunker.Split(documentText)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIngest, err)
	}
	log.Info().Int("chunks", len(chunks)).Msg("created chunks from document")

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIngest, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: embedding count %d does not match chunk count %d", ErrIngest, len(vectors), len(chunks))
	}

	index := vectorstore.Build(vectors)

	r.chunks = chunks
	r.index = index
	log.Info().Int("vectors", index.Len()).Msg("vector store created")
	return nil
}

// RetrieveRelevantChunks embeds the query, searches the index and returns
// ranked chunks marked against the similarity threshold. When the threshold
// filters out every candidate the unfiltered top three are returned instead,
// so downstream generation always receives some context.
func (r *Retriever) RetrieveRelevantChunks(ctx context.Context, query string) ([]models.RetrievedChunk, error) {
	if r.index == nil {
		return nil, ErrNotReady
	}

	log.Debug().Str("query", prefix(query, 100)).Msg("retrieving relevant chunks")

	queryVector, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, err
	}

	hits := r.index.Search(queryVector, r.topK)

	candidates := make([]models.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		// The index only ever returns positions it was built with, but a
		// stale or foreign index must not be trusted with chunk lookup.
		if hit.Index < 0 || hit.Index >= len(r.chunks) {
			log.Warn().Int("index", hit.Index).Int("chunks", len(r.chunks)).Msg("dropping out-of-range search hit")
			continue
		}
		chunk := r.chunks[hit.Index]
		candidates = append(candidates, models.RetrievedChunk{
			Rank:            len(candidates) + 1,
			ChunkID:         chunk.ID,
			Content:         chunk.Text,
			SimilarityScore: hit.Score,
			Metadata:        chunk,
			IsRelevant:      hit.Score >= r.threshold,
		})
	}

	relevant := make([]models.RetrievedChunk, 0, len(candidates))
	for _, c := range candidates {
		if c.IsRelevant {
			relevant = append(relevant, c)
		}
	}

	if len(relevant) == 0 {
		if len(candidates) > degradeTopN {
			candidates = candidates[:degradeTopN]
		}
		log.Warn().Float32("threshold", r.threshold).Int("returned", len(candidates)).Msg("no chunks met similarity threshold, returning top candidates")
		return candidates, nil
	}
	return relevant, nil
}

// GetChunkContext returns the chunk at chunkID joined with window neighbors
// on each side, clipped to valid bounds. Empty string when no document is
// loaded or the id is out of range.
func (r *Retriever) GetChunkContext(chunkID, window int) string {
	if len(r.chunks) == 0 || chunkID < 0 || chunkID >= len(r.chunks) {
		return ""
	}
	if window < 0 {
		window = 0
	}

	start := chunkID - window
	if start < 0 {
		start = 0
	}
	end := chunkID + window + 1
	if end > len(r.chunks) {
		end = len(r.chunks)
	}

	parts := make([]string, 0, end-start)
	for _, chunk := range r.chunks[start:end] {
		parts = append(parts, chunk.Text)
	}
	return strings.Join(parts, "\n\n")
}

func prefix(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

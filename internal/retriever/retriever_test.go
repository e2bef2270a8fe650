package retriever

import (
	"context"
	"errors"
	"strings"
	"testing"

	"document-reasoner/internal/models"
)

// fakeChunker splits on blank lines, one chunk per paragraph.
type fakeChunker struct {
	err error
}

func (f *fakeChunker) Split(documentText string) ([]models.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	var chunks []models.Chunk
	for _, part := range strings.Split(documentText, "\n\n") {
		text := strings.TrimSpace(part)
		if text == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			ID:         len(chunks),
			Text:       text,
			TokenCount: len(strings.Fields(text)),
			CharLength: len(text),
			Preview:    text,
		})
	}
	return chunks, nil
}

// fakeEmbedder returns fixed vectors per text and a fixed query vector.
type fakeEmbedder struct {
	vectors  map[string][]float32
	queryVec []float32
	batchErr error
	queryErr error
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, ok := f.vectors[text]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedOne(context.Context, string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryVec, nil
}

const testDocument = "A grace period of thirty days is provided for premium payment.\n\n" +
	"Cataract surgery has a waiting period of two years.\n\n" +
	"Room rent is capped at one percent of the sum insured."

func readyRetriever(t *testing.T, emb *fakeEmbedder, threshold float32, topK int) *Retriever {
	t.Helper()
	r := New(&fakeChunker{}, emb, threshold, topK)
	if err := r.CreateVectorStore(context.Background(), testDocument); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	return r
}

func defaultEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		vectors: map[string][]float32{
			"A grace period of thirty days is provided for premium payment.": {1, 0, 0},
			"Cataract surgery has a waiting period of two years.":            {0.7, 0.7, 0},
			"Room rent is capped at one percent of the sum insured.":         {0, 1, 0},
		},
		queryVec: []float32{1, 0, 0},
	}
}

func TestRetrieveBeforeIngest(t *testing.T) {
	r := New(&fakeChunker{}, defaultEmbedder(), 0.7, 3)
	if r.Ready() {
		t.Fatal("fresh retriever should not be ready")
	}
	if _, err := r.RetrieveRelevantChunks(context.Background(), "grace period?"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestIngestSuccess(t *testing.T) {
	r := readyRetriever(t, defaultEmbedder(), 0.7, 3)
	if !r.Ready() {
		t.Fatal("retriever should be ready after ingest")
	}
	if r.ChunkCount() != 3 {
		t.Fatalf("expected 3 chunks, got %d", r.ChunkCount())
	}
}

func TestIngestFailureLeavesStateEmpty(t *testing.T) {
	emb := defaultEmbedder()
	emb.batchErr = errors.New("provider unavailable")
	r := New(&fakeChunker{}, emb, 0.7, 3)

	err := r.CreateVectorStore(context.Background(), testDocument)
	if !errors.Is(err, ErrIngest) {
		t.Fatalf("expected ErrIngest, got %v", err)
	}
	if r.Ready() {
		t.Fatal("failed ingest must not leave the retriever ready")
	}
	if _, err := r.RetrieveRelevantChunks(context.Background(), "anything"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady after failed ingest, got %v", err)
	}
}

func TestFailedReingestDropsPriorDocument(t *testing.T) {
	emb := defaultEmbedder()
	r := readyRetriever(t, emb, 0.7, 3)

	emb.batchErr = errors.New("provider unavailable")
	if err := r.CreateVectorStore(context.Background(), "An entirely different document."); !errors.Is(err, ErrIngest) {
		t.Fatalf("expected ErrIngest, got %v", err)
	}
	if r.Ready() {
		t.Fatal("failed re-ingest must not leave the retriever ready")
	}
	if r.ChunkCount() != 0 {
		t.Fatalf("stale chunks retained after failed re-ingest: %d", r.ChunkCount())
	}
	if _, err := r.RetrieveRelevantChunks(context.Background(), "grace period"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady after failed re-ingest, got %v", err)
	}
}

func TestIngestChunkingFailure(t *testing.T) {
	chunkErr := errors.New("no chunks")
	r := New(&fakeChunker{err: chunkErr}, defaultEmbedder(), 0.7, 3)
	err := r.CreateVectorStore(context.Background(), testDocument)
	if !errors.Is(err, ErrIngest) {
		t.Fatalf("expected ErrIngest, got %v", err)
	}
	if !errors.Is(err, chunkErr) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestRetrieveRanksAndMarksRelevance(t *testing.T) {
	r := readyRetriever(t, defaultEmbedder(), 0.9, 3)
	chunks, err := r.RetrieveRelevantChunks(context.Background(), "grace period for premium payment")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected only the exact match above threshold 0.9, got %d chunks", len(chunks))
	}
	top := chunks[0]
	if top.ChunkID != 0 || top.Rank != 1 {
		t.Errorf("unexpected top chunk: id=%d rank=%d", top.ChunkID, top.Rank)
	}
	if !top.IsRelevant {
		t.Error("top chunk should be marked relevant")
	}
	if !strings.Contains(top.Content, "grace period") {
		t.Errorf("unexpected content: %q", top.Content)
	}
	if top.Metadata.ID != top.ChunkID {
		t.Errorf("metadata id %d does not match chunk id %d", top.Metadata.ID, top.ChunkID)
	}
}

func TestRetrieveGracefulDegrade(t *testing.T) {
	emb := defaultEmbedder()
	emb.queryVec = []float32{0, 0, 1} // orthogonal to every stored vector
	r := readyRetriever(t, emb, 0.99, 3)

	chunks, err := r.RetrieveRelevantChunks(context.Background(), "completely unrelated question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("a ready retriever must never return an empty result")
	}
	if len(chunks) > 3 {
		t.Fatalf("degraded result should cap at 3, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.IsRelevant {
			t.Errorf("chunk %d should be below threshold", c.ChunkID)
		}
	}
}

func TestRetrieveQueryEmbeddingError(t *testing.T) {
	emb := defaultEmbedder()
	emb.queryErr = errors.New("embedding service down")
	r := readyRetriever(t, emb, 0.7, 3)
	if _, err := r.RetrieveRelevantChunks(context.Background(), "q"); err == nil {
		t.Fatal("expected query embedding error to propagate")
	}
}

func TestGetChunkContext(t *testing.T) {
	r := readyRetriever(t, defaultEmbedder(), 0.7, 3)

	middle := r.GetChunkContext(1, 1)
	for _, want := range []string{"grace period", "Cataract", "Room rent"} {
		if !strings.Contains(middle, want) {
			t.Errorf("window around chunk 1 missing %q: %q", want, middle)
		}
	}

	first := r.GetChunkContext(0, 1)
	if strings.Contains(first, "Room rent") {
		t.Errorf("window around chunk 0 should clip at the start: %q", first)
	}

	if got := r.GetChunkContext(99, 1); got != "" {
		t.Errorf("out-of-range chunk id should return empty, got %q", got)
	}

	empty := New(&fakeChunker{}, defaultEmbedder(), 0.7, 3)
	if got := empty.GetChunkContext(0, 1); got != "" {
		t.Errorf("empty retriever should return empty context, got %q", got)
	}
}

func TestReingestReplacesDocument(t *testing.T) {
	r := readyRetriever(t, defaultEmbedder(), 0, 3)
	if err := r.CreateVectorStore(context.Background(), "Only one section here."); err != nil {
		t.Fatalf("re-ingest failed: %v", err)
	}
	if r.ChunkCount() != 1 {
		t.Fatalf("expected prior document to be replaced, got %d chunks", r.ChunkCount())
	}
}

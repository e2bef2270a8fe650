package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"document-reasoner/internal/config"
)

// ErrEmbeddingService marks provider failures. They are not retried here;
// the caller decides whether to abort the ingest.
var ErrEmbeddingService = errors.New("embedding service failure")

// Embedder maps text to fixed-dimension dense vectors via an
// OpenAI-compatible embedding endpoint.
type Embedder struct {
	impl      *embeddings.EmbedderImpl
	dimension int
}

// New creates an Embedder from the embedding provider config. The configured
// dimension is authoritative; callers must not assume one.
func New(cfg *config.LLMConfig, dimension int) (*Embedder, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing embedding client: %w", err)
	}
	impl, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return &Embedder{impl: impl, dimension: dimension}, nil
}

// Dimension returns the configured vector width.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// EmbedBatch embeds a batch of texts, one vector per input in order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingService, err)
	}
	return vectors, nil
}

// EmbedOne embeds a single text, typically a query.
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingService, err)
	}
	return vector, nil
}

package decision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"document-reasoner/internal/llmservice"
	"document-reasoner/internal/models"
)

// ErrGeneration marks a backend failure that was not classified as capacity
// exhaustion. It is fatal for the current question only and is not retried.
var ErrGeneration = errors.New("generation backend failure")

// Generator is the primary generative backend.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Engine turns a question plus retrieved context into a validated Decision.
// It is stateless and safe to share across requests.
type Engine struct {
	generator     Generator
	forceFallback bool
}

// NewEngine builds an engine. With forceFallback set (or a nil generator)
// every question is answered by the deterministic rule tier.
func NewEngine(generator Generator, forceFallback bool) *Engine {
	return &Engine{generator: generator, forceFallback: forceFallback}
}

// GenerateDecision produces a structured Decision for one question. Capacity
// exhaustion on the primary backend switches to the rule tier; any other
// backend failure is returned as ErrGeneration.
func (e *Engine) GenerateDecision(ctx context.Context, question string, chunks []models.RetrievedChunk) (models.Decision, error) {
	contextText := prepareContext(chunks)
	prompt := fmt.Sprintf(models.DecisionPromptTemplate, question, contextText)

	var raw string
	switch {
	case e.forceFallback || e.generator == nil:
		raw = ruleBasedAnswer(question)
	default:
		resp, err := e.generator.Generate(ctx, models.SystemPrompt, prompt)
		switch {
		case err == nil:
			raw = resp
		case llmservice.IsCapacityExhausted(err):
			log.Warn().Err(err).Str("question", prefix(question, 100)).Msg("generation capacity exhausted, using rule-based fallback")
			raw = ruleBasedAnswer(question)
		default:
			log.Error().Err(err).Str("question", prefix(question, 100)).Msg("generation failed")
			return models.Decision{}, fmt.Errorf("%w: %w", ErrGeneration, err)
		}
	}

	return parseResponse(raw, chunks), nil
}

// FallbackDecision answers entirely from the rule tier. It cannot fail,
// which makes it the guaranteed terminal answer for a question.
func (e *Engine) FallbackDecision(question string, chunks []models.RetrievedChunk) models.Decision {
	return parseResponse(ruleBasedAnswer(question), chunks)
}

// prepareContext renders retrieved chunks as labeled blocks. With no chunks
// a literal placeholder keeps the prompt well formed.
func prepareContext(chunks []models.RetrievedChunk) string {
	if len(chunks) == 0 {
		return models.NoContextPlaceholder
	}

	var b strings.Builder
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "[Context %d - Relevance: %.3f]\n%s\n\n", i+1, chunk.SimilarityScore, chunk.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func prefix(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

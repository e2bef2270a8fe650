package llmservice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"document-reasoner/internal/config"
)

// Client wraps the generative backend with deterministic low-temperature
// settings, a JSON response constraint and a circuit breaker.
type Client struct {
	llm         *openai.LLM
	breaker     *gobreaker.CircuitBreaker
	maxTokens   int
	temperature float64
}

func New(cfg *config.LLMConfig) (*Client, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GenerativeBackend",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})

	return &Client{
		llm:         llm,
		breaker:     breaker,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Generate runs one JSON-mode chat completion and returns the raw text.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		messages := []llms.MessageContent{
			{
				Role:  llms.ChatMessageTypeSystem,
				Parts: []llms.ContentPart{llms.TextContent{Text: system}},
			},
			{
				Role:  llms.ChatMessageTypeHuman,
				Parts: []llms.ContentPart{llms.TextContent{Text: user}},
			},
		}

		resp, err := c.llm.GenerateContent(ctx, messages,
			llms.WithMaxTokens(c.maxTokens),
			llms.WithTemperature(c.temperature),
			llms.WithJSONMode(),
		)
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("empty completion response")
		}
		return strings.TrimSpace(resp.Choices[0].Content), nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

var capacityMarkers = []string{
	"quota",
	"429",
	"insufficient",
	"exceeded",
	"rate limit",
	"rate_limit",
	"resource exhausted",
}

// IsCapacityExhausted reports whether err signals quota or availability
// exhaustion (as opposed to a hard failure). An open circuit breaker counts:
// it is the same degraded-provider condition as a 429.
func IsCapacityExhausted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range capacityMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

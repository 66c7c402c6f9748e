// Package llm talks to an OpenAI-compatible chat completion endpoint (Groq in production).
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hackspeech/internal/config"
	"hackspeech/internal/monitoring"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("llm: no API key configured")
	ErrEmptyResponse = errors.New("llm: no completion returned")
)

// CompletionRequest is a single system + user exchange.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Completer is the capability the rest of the API depends on.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Client wraps the openai SDK with a circuit breaker.
type Client struct {
	api        openai.Client
	model      string
	configured bool
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

func NewClient(cfg config.LLMConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	threshold := uint32(cfg.CircuitBreakerThreshold)
	if threshold == 0 {
		threshold = 5
	}

	c := &Client{
		model:      cfg.Model,
		configured: cfg.Configured(),
		logger:     logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Timeout:     cfg.CircuitBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// a caller that went away says nothing about the upstream
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("LLM circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	if c.configured {
		c.api = openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
			option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout + 5*time.Second}),
			option.WithMaxRetries(1),
		)
	}

	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.configured
}

// State returns the breaker state (closed, half-open, open).
func (c *Client) State() string {
	return c.breaker.State().String()
}

// Complete sends one chat completion through the breaker and returns the trimmed answer.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !c.configured {
		return "", ErrNotConfigured
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, req)
	})
	monitoring.ObserveLLMCall(time.Since(start), err)

	if err != nil {
		return "", fmt.Errorf("breaker (%s): %w", c.breaker.Name(), err)
	}
	return out.(string), nil
}

func (c *Client) complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	}

	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("LLM completion",
		zap.String("model", resp.Model),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	return content, nil
}

// Generator binds a Completer to fixed sampling parameters. It satisfies
// detection.TextGenerator.
type Generator struct {
	completer   Completer
	temperature float64
	maxTokens   int
}

func NewGenerator(completer Completer, temperature float64, maxTokens int) *Generator {
	return &Generator{completer: completer, temperature: temperature, maxTokens: maxTokens}
}

func (g *Generator) Configured() bool {
	return g.completer != nil && g.completer.Configured()
}

func (g *Generator) Generate(ctx context.Context, system, user string) (string, error) {
	if g.completer == nil {
		return "", ErrNotConfigured
	}
	return g.completer.Complete(ctx, CompletionRequest{
		System:      system,
		User:        user,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
}

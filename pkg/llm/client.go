// Package llm wraps the Ollama model service behind two capabilities:
// text generation and text embedding. Calls are rate limited and retried
// with a fixed delay before the caller sees an error.
package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/time/rate"

	"github.com/medlens/medlens/pkg/retry"
)

// ClientConfig configures the model service client.
type ClientConfig struct {
	BaseURL     string
	ChatModel   string
	EmbedModel  string
	Temperature float64
	MaxTokens   int
	// RateLimit is the ceiling on model calls per second.
	RateLimit float64
	Retry     retry.Policy
}

// Client talks to a local Ollama server for both generation and embeddings.
type Client struct {
	config  ClientConfig
	chat    *ollama.LLM
	embed   *ollama.LLM
	limiter *rate.Limiter
}

func NewWithConfig(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.ChatModel == "" {
		config.ChatModel = "llama3.2"
	}
	if config.EmbedModel == "" {
		config.EmbedModel = "nomic-embed-text"
	}
	if config.Temperature <= 0 {
		config.Temperature = 0.7
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 4
	}
	if config.Retry.MaxAttempts == 0 {
		config.Retry = retry.DefaultPolicy
	}

	chat, err := ollama.New(
		ollama.WithModel(config.ChatModel),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat model: %w", err)
	}

	embed, err := ollama.New(
		ollama.WithModel(config.EmbedModel),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding model: %w", err)
	}

	return &Client{
		config:  config,
		chat:    chat,
		embed:   embed,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}, nil
}

// Generate produces a completion for the prompt, retrying per the policy.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	err := c.config.Retry.Do(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := llms.GenerateFromSinglePrompt(ctx, c.chat, prompt,
			llms.WithTemperature(c.config.Temperature),
			llms.WithMaxTokens(c.config.MaxTokens))
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return out, nil
}

// GenerateStream produces a completion, forwarding chunks to fn as they
// arrive. Not retried: a partially streamed answer cannot be replayed.
func (c *Client) GenerateStream(ctx context.Context, prompt string, fn func(chunk string) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := llms.GenerateFromSinglePrompt(ctx, c.chat, prompt,
		llms.WithTemperature(c.config.Temperature),
		llms.WithMaxTokens(c.config.MaxTokens),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			return fn(string(chunk))
		}))
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	return nil
}

// EmbedTexts embeds the given texts, retrying per the policy.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := c.config.Retry.Do(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		vectors, err := c.embed.CreateEmbedding(ctx, texts)
		if err != nil {
			return err
		}
		out = vectors
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	return out, nil
}

// Ping verifies that both models respond. Used by health checks.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.EmbedTexts(ctx, []string{"test"}); err != nil {
		return fmt.Errorf("embedding model: %w", err)
	}
	if _, err := c.Generate(ctx, "Say 'ok'."); err != nil {
		return fmt.Errorf("chat model: %w", err)
	}
	return nil
}

// Models reports the configured model names, for status endpoints.
func (c *Client) Models() (chat, embed string) {
	return c.config.ChatModel, c.config.EmbedModel
}

// Package llm wraps langchaingo model invocation behind a small prompt-in,
// text-out interface. The service uses two tiers of the same interface: a
// light model for per-file triage and a heavy model for summaries, line
// reviews, and replies.
package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Client generates a completion for a single prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options selects and tunes a model backend.
type Options struct {
	Provider    string // "ollama" or "openai"
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

type langchainClient struct {
	model llms.Model
	opts  Options
}

// New constructs a Client for the configured provider. OpenAI-compatible
// endpoints (including proxies) are reached through the openai backend with
// a custom base URL.
func New(opts Options) (Client, error) {
	var (
		model llms.Model
		err   error
	)

	switch opts.Provider {
	case "ollama":
		model, err = ollama.New(
			ollama.WithServerURL(opts.BaseURL),
			ollama.WithModel(opts.Model),
		)
	case "openai":
		openaiOpts := []openai.Option{
			openai.WithModel(opts.Model),
			openai.WithToken(opts.APIKey),
		}
		if opts.BaseURL != "" {
			openaiOpts = append(openaiOpts, openai.WithBaseURL(opts.BaseURL))
		}
		model, err = openai.New(openaiOpts...)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s client: %w", opts.Provider, err)
	}

	return &langchainClient{model: model, opts: opts}, nil
}

func (c *langchainClient) Generate(ctx context.Context, prompt string) (string, error) {
	callOpts := []llms.CallOption{llms.WithTemperature(c.opts.Temperature)}
	if c.opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(c.opts.MaxTokens))
	}

	log.Debug().
		Str("provider", c.opts.Provider).
		Str("model", c.opts.Model).
		Int("prompt_len", len(prompt)).
		Msg("generating completion")

	resp, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, callOpts...)
	if err != nil {
		return "", fmt.Errorf("llm generation failed: %w", err)
	}
	return resp, nil
}

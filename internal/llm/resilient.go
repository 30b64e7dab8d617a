package llm

import (
	"context"

	"github.com/Tejaswini-002/repo-agent/internal/retry"
)

// ResilientClient retries transient generation failures with exponential
// backoff. Non-retryable errors (bad request, auth) surface immediately.
type ResilientClient struct {
	inner Client
	cfg   retry.Config
}

// NewResilient wraps inner with the LLM retry schedule.
func NewResilient(inner Client) *ResilientClient {
	return &ResilientClient{inner: inner, cfg: retry.LLMConfig()}
}

func (c *ResilientClient) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	err := retry.Do(ctx, c.cfg, "llm.generate", func() error {
		var genErr error
		out, genErr = c.inner.Generate(ctx, prompt)
		return genErr
	})
	return out, err
}

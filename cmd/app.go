// Package cmd defines the CLI commands and the shared service wiring they
// build on.
package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Tejaswini-002/repo-agent/internal/config"
	"github.com/Tejaswini-002/repo-agent/internal/ghapi"
	"github.com/Tejaswini-002/repo-agent/internal/llm"
	"github.com/Tejaswini-002/repo-agent/internal/logging"
	"github.com/Tejaswini-002/repo-agent/internal/prompts"
	"github.com/Tejaswini-002/repo-agent/internal/push"
	"github.com/Tejaswini-002/repo-agent/internal/review"
)

// services bundles the wired application components.
type services struct {
	cfg     *config.Config
	gh      *ghapi.Client
	reviews *review.Service
	pushes  *push.Service
}

// buildServices loads configuration and constructs the GitHub client, the
// two LLM tiers, and the review and push services.
func buildServices(c *cli.Context) (*services, error) {
	// Only treat the path as mandatory when the user set it; the flag's
	// default otherwise points Load at its default search locations.
	path := ""
	if c.IsSet("config") {
		path = c.String("config")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	gh := ghapi.New(cfg.GitHub.BaseURL, cfg.GitHub.Token, cfg.GitHub.BotName)

	light, err := newModel(cfg, cfg.AI.LightModel)
	if err != nil {
		return nil, fmt.Errorf("light model: %w", err)
	}
	heavy, err := newModel(cfg, cfg.AI.HeavyModel)
	if err != nil {
		return nil, fmt.Errorf("heavy model: %w", err)
	}

	set := prompts.NewSet(cfg.Prompts)

	reviews := review.NewService(gh, light, heavy, set, review.Config{
		ReviewSimpleChanges:   cfg.Review.ReviewSimpleChanges,
		SimpleChangeThreshold: cfg.Review.SimpleChangeThreshold,
		SkipExtensions:        cfg.Review.SkipExtensions,
		MaxFiles:              cfg.Review.MaxFiles,
		MaxComments:           cfg.Review.MaxComments,
		IgnoreKeyword:         cfg.Review.IgnoreKeyword,
		UpdateDescription:     cfg.Review.UpdateDescription,
		PostLGTMComments:      cfg.Review.PostLGTMComments,
		BotName:               cfg.GitHub.BotName,
	})
	pushes := push.NewService(gh, heavy, set)

	return &services{cfg: cfg, gh: gh, reviews: reviews, pushes: pushes}, nil
}

func newModel(cfg *config.Config, model string) (llm.Client, error) {
	client, err := llm.New(llm.Options{
		Provider:    cfg.AI.Provider,
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       model,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return llm.NewResilient(client), nil
}

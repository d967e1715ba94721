package main

import (
	"log/slog"

	"recipeforge/internal/capability"
	"recipeforge/internal/config"
	"recipeforge/internal/extraction"
	"recipeforge/internal/marketing"
	"recipeforge/internal/prompts"
	"recipeforge/internal/recipes"
	"recipeforge/internal/services/anthropic"
	"recipeforge/internal/services/llm"
	"recipeforge/internal/stage"
	"recipeforge/internal/thumbnail"
	"recipeforge/internal/workflow"
)

// buildCapability routes image generation through OpenRouter and text
// generation through the configured text provider.
func buildCapability(cfg *config.Config) (capability.Capability, error) {
	openRouter := llm.NewClient(llm.Config{
		APIKey:         cfg.Capability.APIKey,
		BaseURL:        cfg.Capability.BaseURL,
		Referer:        cfg.Capability.Referer,
		Title:          cfg.Capability.Title,
		TimeoutSeconds: cfg.Capability.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(cfg.Capability.RetryMaxAttempts))

	router := capability.Router{Text: openRouter, Image: openRouter}
	if cfg.Capability.TextProvider == config.ProviderAnthropic {
		client, err := anthropic.NewClient(anthropic.Config{
			APIKey:     cfg.Capability.AnthropicAPIKey,
			Model:      cfg.Capability.AnthropicModel,
			MaxTokens:  cfg.Capability.MaxTokens,
			MaxRetries: cfg.Capability.RetryMaxAttempts,
		})
		if err != nil {
			return nil, err
		}
		router.Text = client
	}
	return router, nil
}

func buildStages(cfg *config.Config, repo *recipes.Repository, capable capability.Capability, library *prompts.Repository, logger *slog.Logger) workflow.StageSet {
	return workflow.StageSet{
		Extract: extraction.NewExtractor(repo, capable, library,
			cfg.ModelFor(stage.Extract), cfg.Capability.ExtractionTemperature, logger),
		Thumbnail: thumbnail.NewGenerator(repo, capable, library, cfg.ModelFor(stage.Thumbnail), logger),
		Marketing: marketing.NewMarketer(repo, capable, library, cfg.ModelFor(stage.Marketing), logger),
	}
}

// newManager wires a pipeline manager over repo. Runs are guarded by
// per-recipe file locks under the configured lock directory.
func newManager(cfg *config.Config, repo *recipes.Repository, logger *slog.Logger, opts ...workflow.ManagerOption) (*workflow.Manager, error) {
	capable, err := buildCapability(cfg)
	if err != nil {
		return nil, err
	}
	library, err := prompts.New(cfg.Prompts.Dir)
	if err != nil {
		return nil, err
	}
	stages := buildStages(cfg, repo, capable, library, logger)
	opts = append([]workflow.ManagerOption{workflow.WithLockDir(cfg.Paths.LockDir)}, opts...)
	return workflow.NewManager(cfg, repo, stages, logger, opts...), nil
}

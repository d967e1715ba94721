// Package extraction turns recipe photographs into a structured recipe.
package extraction

import (
	"context"
	"log/slog"

	"recipeforge/internal/capability"
	"recipeforge/internal/logging"
	"recipeforge/internal/prompts"
	"recipeforge/internal/recipes"
	"recipeforge/internal/services"
	"recipeforge/internal/services/llm"
	"recipeforge/internal/stage"
)

// DefaultTemperature keeps transcription close to deterministic.
const DefaultTemperature = 0.1

// Extractor is the first pipeline stage.
type Extractor struct {
	repo         *recipes.Repository
	capability   capability.Capability
	instructions string
	model        string
	temperature  float64
	logger       *slog.Logger
}

// NewExtractor constructs the extraction stage handler.
func NewExtractor(repo *recipes.Repository, capable capability.Capability, library *prompts.Repository, model string, temperature float64, logger *slog.Logger) *Extractor {
	e := &Extractor{
		repo:         repo,
		capability:   capable,
		instructions: promptText(library),
		model:        model,
		temperature:  temperature,
	}
	e.SetLogger(logger)
	return e
}

func promptText(repo *prompts.Repository) string {
	if repo == nil {
		return ""
	}
	return repo.Get(prompts.RecipeExtraction)
}

// SetLogger updates the extractor's logging destination.
func (e *Extractor) SetLogger(logger *slog.Logger) {
	e.logger = logging.NewComponentLogger(logger, "extraction")
}

func (e *Extractor) Name() string { return stage.Extract }

// Prepare verifies the record declares originals.
func (e *Extractor) Prepare(ctx context.Context, record *recipes.Record) error {
	if len(record.OriginalImages) == 0 {
		return services.Wrap(services.ErrValidation, stage.Extract, "prepare", "recipe "+record.ID+" has no original images", nil)
	}
	logging.WithContext(ctx, e.logger).Debug("starting recipe extraction",
		logging.Int("original_count", len(record.OriginalImages)))
	return nil
}

// Execute sends every original to the capability and persists the parsed
// recipe. Nothing is written when the response does not parse.
func (e *Extractor) Execute(ctx context.Context, record *recipes.Record) error {
	logger := logging.WithContext(ctx, e.logger)

	parts, err := stage.LoadOriginalParts(ctx, e.repo, record, stage.Extract)
	if err != nil {
		return err
	}
	resp, err := e.capability.Generate(ctx, capability.Request{
		Model:        e.model,
		Instructions: e.instructions,
		Parts:        parts,
		Temperature:  capability.Float(e.temperature),
	})
	if err != nil {
		return stage.CapabilityError(stage.Extract, err)
	}

	var recipe recipes.Recipe
	if err := llm.DecodeJSON(resp.Text, &recipe); err != nil {
		logger.Warn("extraction response did not parse",
			logging.String(logging.FieldEventType, "malformed_response"),
			logging.String(logging.FieldErrorHint, "inspect raw response; rerun the pipeline"),
			logging.Int("response_length", len(resp.Text)),
			logging.Error(err),
		)
		return services.Malformed(stage.Extract, resp.Text, err)
	}
	if err := e.repo.SetRecipe(ctx, record.ID, &recipe); err != nil {
		return err
	}

	logger.Info("recipe extracted",
		logging.String("recipe_name", recipe.Name),
		logging.Int("ingredient_count", len(recipe.Ingredients)),
		logging.Int("section_count", len(recipe.Instructions)),
		logging.Int("original_count", len(parts)),
	)
	return nil
}

// HealthCheck reports whether the stage can run.
func (e *Extractor) HealthCheck(context.Context) stage.Health {
	return stage.CheckDependencies(stage.Extract, e.capability, e.instructions, e.model)
}

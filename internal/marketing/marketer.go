// Package marketing writes the public description and keywords for a recipe
// from its structured data and thumbnail.
package marketing

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	"recipeforge/internal/capability"
	"recipeforge/internal/logging"
	"recipeforge/internal/prompts"
	"recipeforge/internal/recipes"
	"recipeforge/internal/services"
	"recipeforge/internal/services/llm"
	"recipeforge/internal/stage"
)

// Copy is the capability's marketing answer.
type Copy struct {
	Description string          `json:"description"`
	Keywords    json.RawMessage `json:"keywords"`
}

// Marketer is the third pipeline stage.
type Marketer struct {
	repo         *recipes.Repository
	capability   capability.Capability
	instructions string
	model        string
	logger       *slog.Logger
}

// NewMarketer constructs the marketing stage handler.
func NewMarketer(repo *recipes.Repository, capable capability.Capability, library *prompts.Repository, model string, logger *slog.Logger) *Marketer {
	m := &Marketer{
		repo:       repo,
		capability: capable,
		model:      model,
	}
	if library != nil {
		m.instructions = library.Get(prompts.RecipeMarketing)
	}
	m.SetLogger(logger)
	return m
}

// SetLogger updates the marketer's logging destination.
func (m *Marketer) SetLogger(logger *slog.Logger) {
	m.logger = logging.NewComponentLogger(logger, "marketing")
}

func (m *Marketer) Name() string { return stage.Marketing }

// Prepare requires both the structured recipe and the thumbnail.
func (m *Marketer) Prepare(ctx context.Context, record *recipes.Record) error {
	if _, err := stage.RequireRecipe(ctx, m.repo, record.ID, stage.Marketing); err != nil {
		return err
	}
	if _, err := m.loadThumbnail(ctx, record.ID); err != nil {
		return err
	}
	return nil
}

func (m *Marketer) loadThumbnail(ctx context.Context, id string) ([]byte, error) {
	data, ok, err := m.repo.GetThumbnail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, stage.Marketing, "prepare",
			"no thumbnail for "+id+"; run thumbnail generation first", nil)
	}
	return data, nil
}

// Execute replaces the recipe's description and keywords.
func (m *Marketer) Execute(ctx context.Context, record *recipes.Record) error {
	logger := logging.WithContext(ctx, m.logger)

	recipe, err := stage.RequireRecipe(ctx, m.repo, record.ID, stage.Marketing)
	if err != nil {
		return err
	}
	thumb, err := m.loadThumbnail(ctx, record.ID)
	if err != nil {
		return err
	}
	recipeJSON, err := json.Marshal(recipe)
	if err != nil {
		return services.Wrap(services.ErrValidation, stage.Marketing, "encode recipe", record.ID, err)
	}

	resp, err := m.capability.Generate(ctx, capability.Request{
		Model:        m.model,
		Instructions: m.instructions,
		Parts: []capability.Part{
			capability.Text(string(recipeJSON)),
			capability.ImagePart(thumb, capability.SniffImageMIME(thumb)),
		},
	})
	if err != nil {
		return stage.CapabilityError(stage.Marketing, err)
	}

	description, keywords, err := ParseCopy(resp.Text)
	if err != nil {
		logger.Warn("marketing response did not parse",
			logging.String(logging.FieldEventType, "malformed_response"),
			logging.String(logging.FieldErrorHint, "inspect raw response; rerun the marketing stage"),
			logging.Error(err),
		)
		return services.Malformed(stage.Marketing, resp.Text, err)
	}

	recipe.Description = description
	recipe.SetKeywords(keywords)
	if err := m.repo.SetRecipe(ctx, record.ID, recipe); err != nil {
		return err
	}
	logger.Info("marketing copy generated",
		logging.Int("description_length", len(description)),
		logging.Int("keyword_count", len(keywords)),
	)
	return nil
}

// ParseCopy extracts the description and de-duplicated keywords from a
// marketing response. An empty description is returned as is.
func ParseCopy(text string) (string, []string, error) {
	var out Copy
	if err := llm.DecodeJSON(text, &out); err != nil {
		return "", nil, err
	}
	description := strings.TrimSpace(out.Description)
	holder := recipes.Recipe{RawKeywords: out.Keywords}
	return description, DedupeKeywords(holder.Keywords()), nil
}

// DedupeKeywords drops blank and case-insensitively repeated keywords,
// keeping the first spelling and order.
func DedupeKeywords(keywords []string) []string {
	folder := cases.Fold()
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		key := folder.String(keyword)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, keyword)
	}
	return out
}

// HealthCheck reports whether the stage can run.
func (m *Marketer) HealthCheck(context.Context) stage.Health {
	return stage.CheckDependencies(stage.Marketing, m.capability, m.instructions, m.model)
}

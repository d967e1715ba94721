package stage

import (
	"context"
	"errors"
	"strings"

	"recipeforge/internal/capability"
	"recipeforge/internal/recipes"
	"recipeforge/internal/services"
)

// LoadOriginalParts loads the record's originals as image parts labeled by
// their content.
// A record with no loadable originals is a validation failure.
func LoadOriginalParts(ctx context.Context, repo *recipes.Repository, record *recipes.Record, stageName string) ([]capability.Part, error) {
	originals, err := repo.GetOriginals(ctx, record)
	if err != nil {
		return nil, err
	}
	if len(originals) == 0 {
		return nil, services.Wrap(services.ErrValidation, stageName, "load originals",
			"recipe "+record.ID+" has no readable original images", nil)
	}
	parts := make([]capability.Part, 0, len(originals))
	for _, data := range originals {
		parts = append(parts, capability.ImagePart(data, capability.SniffImageMIME(data)))
	}
	return parts, nil
}

// RequireRecipe loads the persisted recipe, failing with ErrNotFound when
// extraction has not produced one yet.
func RequireRecipe(ctx context.Context, repo *recipes.Repository, id, stageName string) (*recipes.Recipe, error) {
	recipe, err := repo.GetRecipe(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, services.Wrap(services.ErrNotFound, stageName, "prepare",
				"no structured recipe for "+id+"; run extraction first", err)
		}
		return nil, err
	}
	return recipe, nil
}

// CheckDependencies reports whether a stage has a capability, instructions,
// and a model to work with.
func CheckDependencies(name string, capable capability.Capability, instructions, model string) Health {
	switch {
	case capable == nil:
		return Unhealthy(name, "capability not configured")
	case strings.TrimSpace(instructions) == "":
		return Unhealthy(name, "prompt not loaded")
	case strings.TrimSpace(model) == "":
		return Unhealthy(name, "model not configured")
	default:
		return Healthy(name)
	}
}

// CapabilityError tags an untagged capability failure with ErrCapability.
func CapabilityError(stageName string, err error) error {
	if err == nil {
		return nil
	}
	if services.ErrorKind(err) != "unknown" {
		return err
	}
	return services.Wrap(services.ErrCapability, stageName, "generate", "", err)
}

package stage

import (
	"context"

	"recipeforge/internal/recipes"
)

// Stage names in pipeline order.
const (
	Extract   = "extract"
	Thumbnail = "thumbnail"
	Marketing = "marketing"
)

// Names returns the stage names in the order the pipeline runs them.
func Names() []string {
	return []string{Extract, Thumbnail, Marketing}
}

// Handler describes the contract the workflow manager needs from each stage.
//
// Prepare checks preconditions against persisted state and must not write.
// Execute performs the capability call and persists its result.
type Handler interface {
	Name() string
	Prepare(context.Context, *recipes.Record) error
	Execute(context.Context, *recipes.Record) error
	HealthCheck(context.Context) Health
}

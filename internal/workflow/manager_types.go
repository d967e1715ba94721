package workflow

import (
	"log/slog"
	"time"

	"recipeforge/internal/recipes"
	"recipeforge/internal/stage"
)

// StageSet bundles the concrete stage handlers the manager orchestrates.
type StageSet struct {
	Extract   stage.Handler
	Thumbnail stage.Handler
	Marketing stage.Handler
}

type pipelineStage struct {
	name       string
	handler    stage.Handler
	doneStatus recipes.Status
}

// Result summarizes a pipeline run.
type Result struct {
	RecipeID  string
	Completed []string
	Skipped   []string
	Duration  time.Duration
}

type loggerAware interface {
	SetLogger(*slog.Logger)
}

func (s StageSet) pipeline() []pipelineStage {
	return []pipelineStage{
		{name: stage.Extract, handler: s.Extract, doneStatus: recipes.StatusExtracted},
		{name: stage.Thumbnail, handler: s.Thumbnail, doneStatus: recipes.StatusThumbnailGenerated},
		{name: stage.Marketing, handler: s.Marketing, doneStatus: recipes.StatusMarketingGenerated},
	}
}

// resumeIndex returns the position of the first stage that still needs to run
// for a record in the given state.
func resumeIndex(stages []pipelineStage, record *recipes.Record) int {
	status := record.CurrentStatus()
	if status == recipes.StatusFailed {
		for i, st := range stages {
			if st.name == record.FailedStage {
				return i
			}
		}
		return 0
	}
	for i, st := range stages {
		if st.doneStatus == status {
			return i + 1
		}
	}
	return 0
}

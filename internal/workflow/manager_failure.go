package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recipeforge/internal/logging"
	"recipeforge/internal/recipes"
	"recipeforge/internal/services"
)

const rawPreviewRunes = 240

// handleStageFailure records the failed stage on the recipe and notifies.
// Domain fields written by earlier stages are left untouched.
func (m *Manager) handleStageFailure(ctx context.Context, stageName, id string, stageErr error) {
	logger := logging.WithContext(ctx, m.logger)

	message := classifyStageFailure(stageName, stageErr)
	kind := services.ErrorKind(stageErr)
	attrs := []logging.Attr{
		logging.String("resolved_status", string(recipes.StatusFailed)),
		logging.String("error_message", message),
		logging.String(logging.FieldErrorKind, kind),
		logging.String(logging.FieldErrorHint, failureHint(kind, stageName)),
		logging.Error(stageErr),
	}
	if raw, ok := services.RawResponse(stageErr); ok {
		attrs = append(attrs,
			logging.Int("raw_response_length", len(raw)),
			logging.Snippet("raw_response_preview", raw, rawPreviewRunes))
	}
	logging.ErrorWithContext(logger, "stage failed", "stage_failure", attrs...)

	failure := &recipes.Failure{Stage: stageName, Message: message}
	if err := m.repo.SetStatus(ctx, id, recipes.StatusFailed, failure); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("run cancelled, could not persist stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	label := fmt.Sprintf("recipe %s (%s)", id, stageName)
	if err := m.notifier.NotifyError(ctx, stageErr, label); err != nil {
		logger.Debug("failure notification failed", logging.Error(err))
	}
}

func classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return fmt.Sprintf("%s failed without error detail", stageName)
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = fmt.Sprintf("%s failed", stageName)
	}
	return message
}

func failureHint(kind, stageName string) string {
	switch kind {
	case "malformed_response":
		return "inspect the raw capability output and rerun " + stageName
	case "not_found":
		return "run the earlier pipeline stages first"
	case "capability":
		return "check capability credentials, model ids, and provider status"
	case "prompt_not_found":
		return "restore the prompt file or clear prompts.dir"
	case "validation":
		return "check the recipe's original images"
	case "conflict":
		return "another run holds this recipe; retry later"
	case "storage":
		return "check storage backend connectivity"
	default:
		return "check logs for details"
	}
}

package notifications

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"recipeforge/internal/config"
)

const (
	userAgent      = "RecipeForge-Go/0.1.0"
	defaultTimeout = 10 * time.Second
)

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyRecipeCreated(ctx context.Context, recipeID string, imageURLs []string) error
	NotifyPipelineCompleted(ctx context.Context, recipeID, name string) error
	NotifyError(ctx context.Context, err error, label string) error
	TestNotification(ctx context.Context) error
}

// NewService builds the configured notifiers. Webhook and ntfy may both be
// enabled, in which case every event goes to each of them.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	var services []Service
	if url := strings.TrimSpace(cfg.Notifications.WebhookURL); url != "" {
		services = append(services, NewWebhook(url, client))
	}
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		services = append(services, NewNtfy(topic, client))
	}
	switch len(services) {
	case 0:
		return noopService{}
	case 1:
		return services[0]
	default:
		return fanout(services)
	}
}

// NewNoop returns a service that discards every event.
func NewNoop() Service { return noopService{} }

type fanout []Service

func (f fanout) NotifyRecipeCreated(ctx context.Context, recipeID string, imageURLs []string) error {
	return f.each(func(s Service) error { return s.NotifyRecipeCreated(ctx, recipeID, imageURLs) })
}

func (f fanout) NotifyPipelineCompleted(ctx context.Context, recipeID, name string) error {
	return f.each(func(s Service) error { return s.NotifyPipelineCompleted(ctx, recipeID, name) })
}

func (f fanout) NotifyError(ctx context.Context, err error, label string) error {
	return f.each(func(s Service) error { return s.NotifyError(ctx, err, label) })
}

func (f fanout) TestNotification(ctx context.Context) error {
	return f.each(func(s Service) error { return s.TestNotification(ctx) })
}

// each delivers to every service even when an earlier one fails.
func (f fanout) each(fn func(Service) error) error {
	var errs []error
	for _, svc := range f {
		if err := fn(svc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type noopService struct{}

func (noopService) NotifyRecipeCreated(context.Context, string, []string) error   { return nil }
func (noopService) NotifyPipelineCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error              { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }

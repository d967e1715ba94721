package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Webhook event names carried in the "event" field.
const (
	EventRecipeCreated     = "recipe_created"
	EventPipelineCompleted = "pipeline_completed"
	EventError             = "error"
	EventTest              = "test"
)

type webhookPayload struct {
	RecipeID  string   `json:"recipeId,omitempty"`
	ImageURLs []string `json:"imageUrls,omitempty"`
	Event     string   `json:"event,omitempty"`
	Name      string   `json:"name,omitempty"`
	Label     string   `json:"label,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type webhookService struct {
	endpoint string
	client   *http.Client
}

// NewWebhook posts JSON events to endpoint. The creation event keeps the
// {recipeId, imageUrls} shape expected by downstream automation.
func NewWebhook(endpoint string, client *http.Client) Service {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &webhookService{endpoint: endpoint, client: client}
}

func (w *webhookService) NotifyRecipeCreated(ctx context.Context, recipeID string, imageURLs []string) error {
	urls := imageURLs
	if urls == nil {
		urls = []string{}
	}
	body, err := json.Marshal(struct {
		RecipeID  string   `json:"recipeId"`
		ImageURLs []string `json:"imageUrls"`
	}{RecipeID: recipeID, ImageURLs: urls})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	return w.post(ctx, body)
}

func (w *webhookService) NotifyPipelineCompleted(ctx context.Context, recipeID, name string) error {
	return w.send(ctx, webhookPayload{
		RecipeID: recipeID,
		Event:    EventPipelineCompleted,
		Name:     strings.TrimSpace(name),
	})
}

func (w *webhookService) NotifyError(ctx context.Context, err error, label string) error {
	payload := webhookPayload{Event: EventError, Label: strings.TrimSpace(label), Error: "unknown"}
	if err != nil {
		payload.Error = strings.TrimSpace(err.Error())
	}
	return w.send(ctx, payload)
}

func (w *webhookService) TestNotification(ctx context.Context) error {
	return w.send(ctx, webhookPayload{Event: EventTest})
}

func (w *webhookService) send(ctx context.Context, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	return w.post(ctx, body)
}

func (w *webhookService) post(ctx context.Context, body []byte) error {
	if w == nil || w.client == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

// NewNtfy publishes plain-text messages to an ntfy topic URL.
func NewNtfy(topic string, client *http.Client) Service {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &ntfyService{endpoint: topic, client: client}
}

func (n *ntfyService) NotifyRecipeCreated(ctx context.Context, recipeID string, imageURLs []string) error {
	data := payload{
		title:   "RecipeForge - Recipe Created",
		message: fmt.Sprintf("📸 New recipe %s with %d photo(s)", shortID(recipeID), len(imageURLs)),
		tags:    []string{"recipeforge", "recipe", "created"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPipelineCompleted(ctx context.Context, recipeID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = shortID(recipeID)
	}
	data := payload{
		title:    "RecipeForge - Complete",
		message:  fmt.Sprintf("✅ Ready to cook: %s", name),
		tags:     []string{"recipeforge", "pipeline", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, label string) error {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if label = strings.TrimSpace(label); label != "" {
		builder.WriteString(" with ")
		builder.WriteString(label)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "RecipeForge - Error",
		message:  builder.String(),
		tags:     []string{"recipeforge", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "RecipeForge - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"recipeforge", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func shortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

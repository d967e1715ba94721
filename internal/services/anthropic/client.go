// Package anthropic adapts the Anthropic Messages API to capability.Capability
// for text-only stages (extraction and marketing).
package anthropic

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"recipeforge/internal/capability"
	"recipeforge/internal/services"
)

const defaultMaxTokens = 8192

// Config captures the settings for the Messages API.
type Config struct {
	APIKey     string
	Model      string
	MaxTokens  int
	MaxRetries int
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
}

// Client wraps an Anthropic SDK client.
type Client struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewClient builds a client. An empty API key fails with ErrConfiguration.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "anthropic", "new client", "api key required", nil)
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Client{
		client:    sdk.NewClient(opts...),
		model:     strings.TrimSpace(cfg.Model),
		maxTokens: int64(maxTokens),
	}, nil
}

// Generate sends req as a single user message. Image output is not supported.
func (c *Client) Generate(ctx context.Context, req capability.Request) (capability.Response, error) {
	if req.WantImage {
		return capability.Response{}, services.Wrap(services.ErrCapability, "anthropic", "generate", "image output not supported", nil)
	}
	model := strings.TrimSpace(req.Model)
	if model == "" || !strings.HasPrefix(model, "claude") {
		// Stage model ids are OpenRouter ids unless explicitly set for Claude.
		model = c.model
	}
	if model == "" {
		return capability.Response{}, services.Wrap(services.ErrCapability, "anthropic", "generate", "model required", nil)
	}

	blocks := make([]sdk.ContentBlockParamUnion, 0, len(req.Parts))
	for _, part := range req.Parts {
		switch part.Kind {
		case capability.PartText:
			blocks = append(blocks, sdk.NewTextBlock(part.Text))
		case capability.PartImage:
			if len(part.Data) == 0 {
				continue
			}
			blocks = append(blocks, sdk.NewImageBlockBase64(part.MIMEType, base64.StdEncoding.EncodeToString(part.Data)))
		}
	}
	if len(blocks) == 0 {
		return capability.Response{}, services.Wrap(services.ErrCapability, "anthropic", "generate", "at least one content part required", nil)
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: c.maxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(blocks...)},
	}
	if instructions := strings.TrimSpace(req.Instructions); instructions != "" {
		params.System = []sdk.TextBlockParam{{Text: instructions}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return capability.Response{}, services.Wrap(services.ErrCapability, "anthropic", "generate", describe(err), err)
	}
	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return capability.Response{}, services.Wrap(services.ErrCapability, "anthropic", "generate", "no text content (stop_reason="+string(message.StopReason)+")", nil)
	}
	return capability.Response{Text: out}, nil
}

func describe(err error) string {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return "rate limited"
		case apiErr.StatusCode >= 500:
			return "server error"
		default:
			return "request rejected"
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return "request failed"
}

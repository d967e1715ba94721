package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"recipeforge/internal/capability"
	"recipeforge/internal/services"
)

const (
	defaultBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout    = 6 * time.Minute
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 3
)

// Config captures the runtime settings required to talk to OpenRouter.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// DefaultHTTPTimeout returns the default timeout used for requests.
func DefaultHTTPTimeout() time.Duration {
	return defaultHTTPTimeout
}

// Client wraps the OpenRouter chat completion API.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the total attempt count (defaults to 3).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

// Generate sends req as one chat completion.
func (c *Client) Generate(ctx context.Context, req capability.Request) (capability.Response, error) {
	if c.cfg.APIKey == "" {
		return capability.Response{}, services.Wrap(services.ErrCapability, "llm", "generate", "api key required", nil)
	}
	payload, err := c.buildRequest(req)
	if err != nil {
		return capability.Response{}, services.Wrap(services.ErrCapability, "llm", "generate", "build request", err)
	}

	var result capability.Response
	err = c.withRetry(ctx, func() error {
		completion, body, err := c.sendOnce(ctx, payload)
		if err != nil {
			return err
		}
		resp, err := interpretCompletion(completion, body, req.WantImage)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		return capability.Response{}, services.Wrap(services.ErrCapability, "llm", "generate", "model "+payload.Model, err)
	}
	return result, nil
}

// Ping issues a small JSON request to verify the key and model are usable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.Generate(ctx, capability.Request{
		Instructions: "You must respond with JSON only.",
		Parts:        []capability.Part{capability.Text(`Respond with {"ok":true}`)},
		Temperature:  capability.Float(0),
	})
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(resp.Text, &parsed); err != nil {
		return services.Wrap(services.ErrCapability, "llm", "ping", "parse payload", err)
	}
	if !parsed.OK {
		return services.Wrap(services.ErrCapability, "llm", "ping", "unexpected response", nil)
	}
	return nil
}

func (c *Client) buildRequest(req capability.Request) (chatCompletionRequest, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.cfg.Model
	}
	if model == "" {
		return chatCompletionRequest{}, fmt.Errorf("model required")
	}
	content := make([]contentPart, 0, len(req.Parts))
	for _, part := range req.Parts {
		switch part.Kind {
		case capability.PartText:
			content = append(content, contentPart{Type: "text", Text: part.Text})
		case capability.PartImage:
			if len(part.Data) == 0 {
				continue
			}
			content = append(content, contentPart{
				Type:     "image_url",
				ImageURL: &imageURL{URL: capability.DataURL(part.MIMEType, part.Data)},
			})
		default:
			return chatCompletionRequest{}, fmt.Errorf("unknown part kind %q", part.Kind)
		}
	}
	if len(content) == 0 {
		return chatCompletionRequest{}, fmt.Errorf("at least one content part required")
	}

	messages := make([]chatMessage, 0, 2)
	if instructions := strings.TrimSpace(req.Instructions); instructions != "" {
		messages = append(messages, chatMessage{Role: "system", Content: instructions})
	}
	messages = append(messages, chatMessage{Role: "user", Content: content})

	payload := chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.WantImage {
		payload.Modalities = []string{"image", "text"}
	}
	return payload, nil
}

func (c *Client) sendOnce(ctx context.Context, payload chatCompletionRequest) (chatCompletionResponse, []byte, error) {
	var completion chatCompletionResponse
	encoded, err := json.Marshal(payload)
	if err != nil {
		return completion, nil, permanent(fmt.Errorf("encode body: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return completion, nil, permanent(fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completion, nil, fmt.Errorf("http error (timeout=%s): %w", c.timeoutDuration(), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return completion, nil, fmt.Errorf("read body (timeout=%s): %w", c.timeoutDuration(), err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return completion, body, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       summarizePayloadSnippet(string(body)),
			RetryAfter: retryAfter,
		}
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return completion, body, fmt.Errorf("decode response: %w (snippet: %s)", err, summarizePayloadSnippet(string(body)))
	}
	if completion.Error != nil {
		return completion, body, fmt.Errorf("api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	return completion, body, nil
}

func (c *Client) timeoutDuration() time.Duration {
	if c.httpClient == nil || c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}

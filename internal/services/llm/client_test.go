package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"recipeforge/internal/capability"
	"recipeforge/internal/services"
)

func writeCompletion(t *testing.T, w http.ResponseWriter, message map[string]any) {
	t.Helper()
	payload := map[string]any{
		"choices": []any{
			map[string]any{"message": message, "finish_reason": "stop"},
		},
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func fastClient(baseURL string) *Client {
	return NewClient(Config{APIKey: "test", BaseURL: baseURL, Model: "demo-model"},
		WithRetryBackoff(time.Millisecond, 2*time.Millisecond))
}

func TestGenerateSendsMultimodalRequest(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Fatalf("authorization header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		writeCompletion(t, w, map[string]any{"content": `{"name":"Tacos"}`})
	}))
	defer server.Close()

	resp, err := fastClient(server.URL).Generate(context.Background(), capability.Request{
		Instructions: "extract",
		Parts:        []capability.Part{capability.ImagePart([]byte{1, 2, 3}, "image/jpeg"), capability.Text("hint")},
		Temperature:  capability.Float(0.1),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text != `{"name":"Tacos"}` {
		t.Fatalf("text = %q", resp.Text)
	}
	if captured["model"] != "demo-model" {
		t.Fatalf("model = %v", captured["model"])
	}
	if captured["temperature"] != 0.1 {
		t.Fatalf("temperature = %v", captured["temperature"])
	}
	if _, ok := captured["modalities"]; ok {
		t.Fatal("text request should not set modalities")
	}
	messages := captured["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(messages))
	}
	system := messages[0].(map[string]any)
	if system["role"] != "system" || system["content"] != "extract" {
		t.Fatalf("system message = %v", system)
	}
	parts := messages[1].(map[string]any)["content"].([]any)
	image := parts[0].(map[string]any)
	if image["type"] != "image_url" {
		t.Fatalf("first part = %v", image)
	}
	url := image["image_url"].(map[string]any)["url"].(string)
	if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Fatalf("image url = %q", url)
	}
	if parts[1].(map[string]any)["text"] != "hint" {
		t.Fatalf("second part = %v", parts[1])
	}
}

func TestGenerateReadsImageOutput(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		writeCompletion(t, w, map[string]any{
			"content": "Here is your thumbnail.",
			"images": []any{
				map[string]any{"type": "image_url", "image_url": map[string]any{"url": capability.DataURL("image/png", png)}},
			},
		})
	}))
	defer server.Close()

	resp, err := fastClient(server.URL).Generate(context.Background(), capability.Request{
		Parts:     []capability.Part{capability.Text("draw")},
		WantImage: true,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	image, ok := resp.FirstImage()
	if !ok || image.MIMEType != "image/png" || !bytes.Equal(image.Data, png) {
		t.Fatalf("image = %+v ok=%v", image, ok)
	}
	modalities, _ := captured["modalities"].([]any)
	if len(modalities) != 2 || modalities[0] != "image" {
		t.Fatalf("modalities = %v", captured["modalities"])
	}
}

func TestGenerateFallsBackToDataURLInText(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0xff}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(t, w, map[string]any{
			"content": `{"thumbnail":"` + capability.DataURL("image/jpeg", jpeg) + `"}`,
		})
	}))
	defer server.Close()

	resp, err := fastClient(server.URL).Generate(context.Background(), capability.Request{
		Parts:     []capability.Part{capability.Text("draw")},
		WantImage: true,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	image, ok := resp.FirstImage()
	if !ok || !bytes.Equal(image.Data, jpeg) {
		t.Fatalf("expected image from text, got %+v", resp)
	}
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeCompletion(t, w, map[string]any{"content": "ok"})
	}))
	defer server.Close()

	resp, err := fastClient(server.URL).Generate(context.Background(), capability.Request{Parts: []capability.Part{capability.Text("x")}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text != "ok" || calls.Load() != 3 {
		t.Fatalf("text=%q calls=%d", resp.Text, calls.Load())
	}
}

func TestGenerateRetriesEmptyContent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeCompletion(t, w, map[string]any{"content": ""})
			return
		}
		writeCompletion(t, w, map[string]any{"content": "done"})
	}))
	defer server.Close()

	resp, err := fastClient(server.URL).Generate(context.Background(), capability.Request{Parts: []capability.Part{capability.Text("x")}})
	if err != nil || resp.Text != "done" {
		t.Fatalf("text=%q err=%v", resp.Text, err)
	}
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	_, err := fastClient(server.URL).Generate(context.Background(), capability.Request{Parts: []capability.Part{capability.Text("x")}})
	if !errors.Is(err, services.ErrCapability) {
		t.Fatalf("expected ErrCapability, got %v", err)
	}
	var statusErr *httpStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected http 401 in chain, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestGenerateGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "m"},
		WithRetryMaxAttempts(2), WithRetryBackoff(time.Millisecond, time.Millisecond))
	_, err := client.Generate(context.Background(), capability.Request{Parts: []capability.Part{capability.Text("x")}})
	if !errors.Is(err, services.ErrCapability) {
		t.Fatalf("expected ErrCapability, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestGenerateRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{Model: "m"})
	_, err := client.Generate(context.Background(), capability.Request{Parts: []capability.Part{capability.Text("x")}})
	if !errors.Is(err, services.ErrCapability) {
		t.Fatalf("expected ErrCapability, got %v", err)
	}
}

func TestGenerateUsesRequestModel(t *testing.T) {
	var model string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		model = body.Model
		writeCompletion(t, w, map[string]any{"content": "ok"})
	}))
	defer server.Close()

	_, err := fastClient(server.URL).Generate(context.Background(), capability.Request{
		Model: "override-model",
		Parts: []capability.Part{capability.Text("x")},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if model != "override-model" {
		t.Fatalf("model = %q", model)
	}
}

func TestGenerateReadsContentParts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(t, w, map[string]any{
			"content": []any{map[string]any{"type": "text", "text": "part one"}},
		})
	}))
	defer server.Close()

	resp, err := fastClient(server.URL).Generate(context.Background(), capability.Request{Parts: []capability.Part{capability.Text("x")}})
	if err != nil || resp.Text != "part one" {
		t.Fatalf("text=%q err=%v", resp.Text, err)
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(t, w, map[string]any{"content": "```json\n{\"ok\":true}\n```"})
	}))
	defer server.Close()

	if err := fastClient(server.URL).Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	var parsed struct {
		Name string `json:"name"`
	}
	if err := DecodeJSON("Sure! ```json\n{\"name\":\"Tacos\"}\n```", &parsed); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if parsed.Name != "Tacos" {
		t.Fatalf("name = %q", parsed.Name)
	}
	for _, payload := range []string{"not json", "", "null", `"just a string"`} {
		if err := DecodeJSON(payload, &parsed); err == nil {
			t.Fatalf("expected error for %q", payload)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := parseRetryAfter("3"); !ok || d != 3*time.Second {
		t.Fatalf("parseRetryAfter(3) = %v, %v", d, ok)
	}
	if _, ok := parseRetryAfter("soon"); ok {
		t.Fatal("expected invalid header")
	}
}

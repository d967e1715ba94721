package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"recipeforge/internal/capability"
	"recipeforge/internal/services"
)

func TestGenerateSendsSystemAndImages(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5",
			"content":[{"type":"text","text":"{\"name\":\"Tacos\"}"}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":5}}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "k", Model: "claude-sonnet-4-5", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	resp, err := client.Generate(context.Background(), capability.Request{
		Model:        "google/gemini-3-pro-preview",
		Instructions: "extract",
		Parts:        []capability.Part{capability.ImagePart([]byte{1, 2}, "image/jpeg")},
		Temperature:  capability.Float(0.1),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text != `{"name":"Tacos"}` {
		t.Fatalf("text = %q", resp.Text)
	}
	if captured["model"] != "claude-sonnet-4-5" {
		t.Fatalf("model = %v", captured["model"])
	}
	system, _ := captured["system"].([]any)
	if len(system) != 1 {
		t.Fatalf("system = %v", captured["system"])
	}
	messages := captured["messages"].([]any)
	content := messages[0].(map[string]any)["content"].([]any)
	if content[0].(map[string]any)["type"] != "image" {
		t.Fatalf("first block = %v", content[0])
	}
}

func TestGenerateRejectsImageOutput(t *testing.T) {
	client, err := NewClient(Config{APIKey: "k", Model: "claude-sonnet-4-5"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Generate(context.Background(), capability.Request{WantImage: true})
	if !errors.Is(err, services.ErrCapability) {
		t.Fatalf("expected ErrCapability, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestGenerateWrapsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "k", Model: "claude-sonnet-4-5", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Generate(context.Background(), capability.Request{Parts: []capability.Part{capability.Text("x")}})
	if !errors.Is(err, services.ErrCapability) {
		t.Fatalf("expected ErrCapability, got %v", err)
	}
}

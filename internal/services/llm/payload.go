package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"recipeforge/internal/capability"
)

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	Modalities  []string      `json:"modalities,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers return the streaming schema even when stream=false.
		Delta        chatCompletionMessage `json:"delta"`
		FinishReason string                `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content json.RawMessage `json:"content"`
	Images  []contentPart   `json:"images"`
	Refusal string          `json:"refusal"`
}

// text flattens string or parts-array content.
func (m chatCompletionMessage) text() string {
	if len(m.Content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(m.Content, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var parts []contentPart
	if err := json.Unmarshal(m.Content, &parts); err == nil {
		var b strings.Builder
		for _, part := range parts {
			if part.Type == "text" && part.Text != "" {
				if b.Len() > 0 {
					b.WriteString("\n")
				}
				b.WriteString(part.Text)
			}
		}
		return strings.TrimSpace(b.String())
	}
	return ""
}

// images collects images from the images array and from image parts
// inside content.
func (m chatCompletionMessage) images() []capability.Image {
	var urls []string
	for _, part := range m.Images {
		if part.ImageURL != nil {
			urls = append(urls, part.ImageURL.URL)
		}
	}
	var parts []contentPart
	if len(m.Content) > 0 && json.Unmarshal(m.Content, &parts) == nil {
		for _, part := range parts {
			if part.Type == "image_url" && part.ImageURL != nil {
				urls = append(urls, part.ImageURL.URL)
			}
		}
	}
	out := make([]capability.Image, 0, len(urls))
	for _, url := range urls {
		if image, err := capability.DecodeDataURL(url); err == nil {
			out = append(out, image)
		}
	}
	return out
}

type emptyContentError struct {
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("empty content (finish_reason=%q, refusal=%q, response_snippet=%s)", e.FinishReason, e.Refusal, e.Snippet)
}

func interpretCompletion(completion chatCompletionResponse, body []byte, wantImage bool) (capability.Response, error) {
	if len(completion.Choices) == 0 {
		return capability.Response{}, &emptyContentError{Snippet: summarizePayloadSnippet(string(body))}
	}
	var (
		resp         capability.Response
		finishReason string
		refusal      string
	)
	for _, choice := range completion.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if refusal == "" {
			refusal = firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal)
		}
		if resp.Text == "" {
			resp.Text = firstNonEmpty(choice.Message.text(), choice.Delta.text())
		}
		resp.Images = append(resp.Images, choice.Message.images()...)
		resp.Images = append(resp.Images, choice.Delta.images()...)
	}
	if wantImage && len(resp.Images) == 0 && resp.Text != "" {
		if image, ok := capability.ExtractImageFromText(resp.Text); ok {
			resp.Images = append(resp.Images, image)
		}
	}
	if resp.Text == "" && len(resp.Images) == 0 {
		return capability.Response{}, &emptyContentError{
			FinishReason: finishReason,
			Refusal:      refusal,
			Snippet:      summarizePayloadSnippet(string(body)),
		}
	}
	return resp, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

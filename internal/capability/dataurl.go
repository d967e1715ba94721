package capability

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

var dataURLPattern = regexp.MustCompile(`data:(image/[a-zA-Z0-9.+-]+);base64,([A-Za-z0-9+/=_-]+)`)

// SniffImageMIME labels image bytes by content. Unrecognized data is
// labeled image/jpeg, the type recipe blobs are stored under.
func SniffImageMIME(data []byte) string {
	if mime := http.DetectContentType(data); strings.HasPrefix(mime, "image/") {
		return mime
	}
	return "image/jpeg"
}

// DataURL encodes data as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL decodes "data:<mime>;base64,<payload>".
func DecodeDataURL(value string) (Image, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "data:") {
		return Image{}, fmt.Errorf("not a data url")
	}
	header, payload, ok := strings.Cut(value[len("data:"):], ",")
	if !ok {
		return Image{}, fmt.Errorf("data url has no payload")
	}
	mimeType, encoding, _ := strings.Cut(header, ";")
	if encoding != "base64" {
		return Image{}, fmt.Errorf("data url encoding %q not supported", encoding)
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	data, err := decodeBase64(payload)
	if err != nil {
		return Image{}, fmt.Errorf("decode data url: %w", err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("data url payload is empty")
	}
	return Image{MIMEType: mimeType, Data: data}, nil
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return data, nil
	}
	if data, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err == nil {
		return data, nil
	}
	return base64.URLEncoding.DecodeString(payload)
}

// ExtractImageFromText finds an image in model text output. It accepts a
// JSON object {"thumbnail": "data:..."} or a bare data URL anywhere in the
// text.
func ExtractImageFromText(text string) (Image, bool) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") {
		var payload struct {
			Thumbnail string `json:"thumbnail"`
		}
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil && payload.Thumbnail != "" {
			if image, err := DecodeDataURL(payload.Thumbnail); err == nil {
				return image, true
			}
		}
	}
	match := dataURLPattern.FindString(trimmed)
	if match == "" {
		return Image{}, false
	}
	image, err := DecodeDataURL(match)
	if err != nil {
		return Image{}, false
	}
	return image, true
}

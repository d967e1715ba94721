package capability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"recipeforge/internal/services"
)

type recordingCapability struct {
	name  string
	calls int
}

func (r *recordingCapability) Generate(context.Context, Request) (Response, error) {
	r.calls++
	return Response{Text: r.name}, nil
}

func TestRouterSendsImageRequestsToImageProvider(t *testing.T) {
	text := &recordingCapability{name: "text"}
	image := &recordingCapability{name: "image"}
	router := Router{Text: text, Image: image}

	resp, err := router.Generate(context.Background(), Request{WantImage: true})
	if err != nil || resp.Text != "image" {
		t.Fatalf("image request routed to %q (err=%v)", resp.Text, err)
	}
	resp, err = router.Generate(context.Background(), Request{})
	if err != nil || resp.Text != "text" {
		t.Fatalf("text request routed to %q (err=%v)", resp.Text, err)
	}
	if text.calls != 1 || image.calls != 1 {
		t.Fatalf("calls text=%d image=%d", text.calls, image.calls)
	}
}

func TestRouterWithoutProvider(t *testing.T) {
	_, err := Router{}.Generate(context.Background(), Request{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	payload := []byte{0xff, 0xd8, 0xff, 0x00, 0x10}
	image, err := DecodeDataURL(DataURL("image/png", payload))
	if err != nil {
		t.Fatalf("DecodeDataURL: %v", err)
	}
	if image.MIMEType != "image/png" || !bytes.Equal(image.Data, payload) {
		t.Fatalf("unexpected image %+v", image)
	}
}

func TestSniffImageMIME(t *testing.T) {
	cases := map[string][]byte{
		"image/jpeg": {0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10},
		"image/png":  []byte("\x89PNG\r\n\x1a\n"),
		"image/gif":  []byte("GIF89a"),
		"image/webp": []byte("RIFF\x1a\x00\x00\x00WEBPVP8 "),
	}
	for want, data := range cases {
		if got := SniffImageMIME(data); got != want {
			t.Fatalf("SniffImageMIME(% x) = %q, want %q", data, got, want)
		}
	}
	if got := SniffImageMIME([]byte("plain text")); got != "image/jpeg" {
		t.Fatalf("unrecognized data labeled %q", got)
	}
}

func TestDecodeDataURLRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "hello", "data:image/png,abc", "data:image/png;base64,"} {
		if _, err := DecodeDataURL(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestExtractImageFromText(t *testing.T) {
	payload := []byte("jpegbytes")
	url := DataURL("image/jpeg", payload)

	image, ok := ExtractImageFromText(`{"thumbnail":"` + url + `"}`)
	if !ok || !bytes.Equal(image.Data, payload) {
		t.Fatalf("json thumbnail not extracted: %+v %v", image, ok)
	}
	image, ok = ExtractImageFromText("Here you go: " + url + " enjoy")
	if !ok || !bytes.Equal(image.Data, payload) {
		t.Fatalf("inline data url not extracted: %+v %v", image, ok)
	}
	if _, ok := ExtractImageFromText("I cannot draw that."); ok {
		t.Fatal("expected no image")
	}
}

func TestFirstImageSkipsEmpty(t *testing.T) {
	resp := Response{Images: []Image{{MIMEType: "image/png"}, {MIMEType: "image/jpeg", Data: []byte{1}}}}
	image, ok := resp.FirstImage()
	if !ok || image.MIMEType != "image/jpeg" {
		t.Fatalf("FirstImage = %+v %v", image, ok)
	}
}

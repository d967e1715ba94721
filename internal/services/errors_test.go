package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"recipeforge/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrStorage, "blobstore", "save", "write failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"blobstore", "save", "write failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestMalformedResponseCarriesRaw(t *testing.T) {
	err := services.Malformed("extract", "not json", errors.New("invalid character"))
	wrapped := fmt.Errorf("run pipeline: %w", err)

	if !errors.Is(wrapped, services.ErrMalformedResponse) {
		t.Fatalf("expected malformed marker, got %v", wrapped)
	}
	raw, ok := services.RawResponse(wrapped)
	if !ok || raw != "not json" {
		t.Fatalf("unexpected raw response: %q %v", raw, ok)
	}
	if !strings.Contains(wrapped.Error(), "extract") {
		t.Fatalf("expected stage in message: %q", wrapped.Error())
	}
}

func TestErrorKind(t *testing.T) {
	cases := map[string]error{
		"not_found":          services.Wrap(services.ErrNotFound, "recipes", "load", "", nil),
		"malformed_response": services.Malformed("marketing", "{", nil),
		"capability":         services.Wrap(services.ErrCapability, "llm", "send", "", errors.New("timeout")),
		"unimplemented":      services.ErrUnimplemented,
		"storage":            services.Wrap(services.ErrStorage, "", "", "", nil),
		"unknown":            errors.New("other"),
		"":                   nil,
	}
	for want, err := range cases {
		if got := services.ErrorKind(err); got != want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", err, got, want)
		}
	}
}

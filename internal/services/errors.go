package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrMalformedResponse = errors.New("malformed response")
	ErrCapability        = errors.New("capability failure")
	ErrStorage           = errors.New("storage failure")
	ErrUnimplemented     = errors.New("unimplemented")
	ErrPromptNotFound    = errors.New("prompt not found")
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("configuration error")
	ErrConflict          = errors.New("conflict")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrStorage
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// MalformedResponseError reports capability output that failed to parse. Raw
// holds the unmodified response text.
type MalformedResponseError struct {
	Stage string
	Raw   string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	var b strings.Builder
	b.WriteString(ErrMalformedResponse.Error())
	if e.Stage != "" {
		b.WriteString(": ")
		b.WriteString(e.Stage)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// Malformed constructs a MalformedResponseError.
func Malformed(stage, raw string, err error) error {
	return &MalformedResponseError{Stage: stage, Raw: raw, Err: err}
}

// RawResponse returns the raw capability output carried by err, if any.
func RawResponse(err error) (string, bool) {
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return malformed.Raw, true
	}
	return "", false
}

// ErrorKind returns a stable, log-friendly classification for err.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrCapability):
		return "capability"
	case errors.Is(err, ErrUnimplemented):
		return "unimplemented"
	case errors.Is(err, ErrPromptNotFound):
		return "prompt_not_found"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrStorage):
		return "storage"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

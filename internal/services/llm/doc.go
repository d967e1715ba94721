// Package llm provides an OpenRouter chat client implementing
// capability.Capability.
//
// Instructions travel as the system message. Text and images travel as
// ordered content parts of a single user message, images as base64 data
// URLs. Requests that want image output set modalities to ["image","text"];
// generated images are read from message.images and, failing that, from a
// data URL embedded in the text content.
//
// # Configuration
//
// Requires api_key and a model, either on Config or per request.
// base_url, referer, title, and timeout are optional. Image-bearing calls are
// slow, so the default timeout is six minutes.
//
// # Retry Behaviour
//
// The client retries HTTP 408/429/5xx responses, network timeouts, and
// empty completions with exponential backoff (cenkalti/backoff). A
// Retry-After header overrides the computed delay. Every other failure is
// permanent. Context cancellation aborts retries immediately. All failures
// are tagged with services.ErrCapability.
//
// # JSON Output
//
// DecodeJSON tolerates code fences and leading prose around the first JSON
// object or array in a completion.
package llm

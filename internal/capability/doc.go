// Package capability defines the generative model boundary used by the
// pipeline stages: instructions plus ordered text and image parts in, text
// or image bytes out.
package capability

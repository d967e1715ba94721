// Package services defines shared utilities consumed by the pipeline stage
// handlers, the recipe repository, and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp recipe IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so storage, capability,
//     and parse failures can be classified with errors.Is regardless of how
//     many layers annotated them.
//   - MalformedResponseError, which keeps the raw capability output next to
//     the parse failure for diagnosis.
//
// Use these helpers when wiring new stage logic so failure classification and
// observability stay uniform across the pipeline.
package services

// Package config loads, normalizes, and validates recipeforge configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY and RECIPES_ROOT. The Config type centralizes the storage
// root, blob backend selection, capability models and timeouts, prompt
// overrides, and notification endpoints so the CLI and the pipeline receive
// their settings in one pass instead of reading ambient globals.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

// Package main hosts the recipeforge CLI entrypoint and command graph.
//
// The Cobra command tree creates recipes from photographs, runs the
// extraction pipeline against them, and exposes the stored artifacts
// (structured recipe, thumbnail, originals) for inspection. Configuration is
// resolved lazily once per invocation; commands that only scaffold
// configuration skip loading it.
package main

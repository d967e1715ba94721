// Package preflight provides readiness checks for the storage backend,
// filesystem paths, prompts, and capability provider recipeforge depends on.
//
// The CLI "status" command renders these results; RunAll covers the local
// checks and CheckCapability is opt-in because it spends a model request.
package preflight

package preflight

import (
	"context"

	"recipeforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the local preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Directory backends keep their data under the storage root.
	switch cfg.Storage.Backend {
	case config.BackendFilesystem, config.BackendSQLite:
		results = append(results, CheckDirectoryAccess("Storage directory", cfg.Paths.StorageRoot))
	}
	results = append(results, CheckDirectoryAccess("Lock directory", cfg.Paths.LockDir))
	results = append(results, CheckStorage(ctx, cfg))
	results = append(results, CheckPrompts(cfg.Prompts.Dir))

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"recipeforge/internal/blobstore"
	"recipeforge/internal/config"
	"recipeforge/internal/prompts"
	"recipeforge/internal/services/llm"
)

// CheckCapability verifies that the OpenRouter API is reachable and the key is
// valid. It uses a 30-second timeout and a single attempt (no retries).
func CheckCapability(ctx context.Context, cfg *config.Config) Result {
	const name = "Capability"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if cfg.Capability.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.Capability.APIKey,
		BaseURL: cfg.Capability.BaseURL,
		Model:   cfg.Capability.ExtractionModel,
		Referer: cfg.Capability.Referer,
		Title:   cfg.Capability.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeCapabilityError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckStorage opens the configured blob store and lists the partition.
func CheckStorage(ctx context.Context, cfg *config.Config) Result {
	name := "Storage (" + cfg.Storage.Backend + ")"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := blobstore.Open(checkCtx, cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("open failed (%v)", err)}
	}
	defer store.Close()

	ids, err := store.List(checkCtx, cfg.Storage.Partition)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("list failed (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d recipe(s) in %s", len(ids), cfg.Storage.Partition)}
}

// CheckPrompts verifies every stage prompt resolves.
func CheckPrompts(dir string) Result {
	const name = "Prompts"

	library, err := prompts.New(dir)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	sources := make([]string, 0, len(prompts.AllTypes()))
	for _, t := range prompts.AllTypes() {
		if strings.HasPrefix(library.Source(t), "embedded:") {
			continue
		}
		sources = append(sources, string(t))
	}
	if len(sources) == 0 {
		return Result{Name: name, Passed: true, Detail: "embedded defaults"}
	}
	return Result{Name: name, Passed: true, Detail: "overrides: " + strings.Join(sources, ", ")}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeCapabilityError produces a human-readable summary for ping failures.
func summarizeCapabilityError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (capability API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (capability API unreachable)"
	}
	return err.Error()
}

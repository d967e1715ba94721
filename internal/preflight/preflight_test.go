package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"recipeforge/internal/config"
	"recipeforge/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckPrompts(t *testing.T) {
	result := CheckPrompts("")
	if !result.Passed || result.Detail != "embedded defaults" {
		t.Fatalf("unexpected result %+v", result)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "generate-thumbnail-prompt.md"), []byte("draw it"), 0o644); err != nil {
		t.Fatal(err)
	}
	result = CheckPrompts(dir)
	if !result.Passed || result.Detail != "overrides: thumbnail_generation" {
		t.Fatalf("unexpected override result %+v", result)
	}
}

func TestCheckCapability_MissingKey(t *testing.T) {
	cfg := config.Default()
	cfg.Capability.APIKey = ""
	if result := CheckCapability(context.Background(), &cfg); result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckCapability_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Capability.BaseURL = srv.URL
	cfg.Capability.APIKey = "good-key"
	if result := CheckCapability(context.Background(), &cfg); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}

	cfg.Capability.APIKey = "bad-key"
	if result := CheckCapability(context.Background(), &cfg); result.Passed {
		t.Fatal("expected failure for bad key")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MemoryBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.LockDir, 0o755); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	// lock directory, storage, prompts
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if !AllPassed(results) {
		t.Fatal("expected all checks to pass")
	}
}

func TestRunAll_FilesystemChecksStorageRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendFilesystem))
	results := RunAll(context.Background(), cfg)
	if results[0].Name != "Storage directory" || results[0].Passed {
		t.Fatalf("expected missing storage directory to fail first, got %+v", results[0])
	}
	if AllPassed(results) {
		t.Fatal("expected AllPassed to be false")
	}
}

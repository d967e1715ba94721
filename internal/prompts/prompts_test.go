package prompts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"recipeforge/internal/services"
)

func TestNewLoadsEmbeddedPrompts(t *testing.T) {
	repo, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, typ := range AllTypes() {
		if strings.TrimSpace(repo.Get(typ)) == "" {
			t.Fatalf("prompt %s is empty", typ)
		}
		if !strings.HasPrefix(repo.Source(typ), "embedded:") {
			t.Fatalf("prompt %s source = %q", typ, repo.Source(typ))
		}
	}
	if !strings.Contains(repo.Get(RecipeMarketing), "marketing assistant") {
		t.Fatalf("unexpected marketing prompt: %q", repo.Get(RecipeMarketing))
	}
}

func TestNewAppliesDirectoryOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ResourceName(ThumbnailGeneration)), []byte("draw it"), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	repo, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := repo.Get(ThumbnailGeneration); got != "draw it" {
		t.Fatalf("override not applied: %q", got)
	}
	if strings.HasPrefix(repo.Source(RecipeExtraction), dir) {
		t.Fatalf("extraction should fall back to embedded, got %q", repo.Source(RecipeExtraction))
	}
}

func TestMissingPromptFailsAtConstruction(t *testing.T) {
	embedded := fstest.MapFS{
		"p/extract-recipe-prompt.md":     {Data: []byte("extract")},
		"p/generate-thumbnail-prompt.md": {Data: []byte("thumb")},
	}
	_, err := load(embedded, "p", "")
	if !errors.Is(err, services.ErrPromptNotFound) {
		t.Fatalf("expected ErrPromptNotFound, got %v", err)
	}
}

func TestEmptyPromptFailsAtConstruction(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ResourceName(RecipeExtraction)), []byte("  \n"), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	if _, err := New(dir); !errors.Is(err, services.ErrPromptNotFound) {
		t.Fatalf("expected ErrPromptNotFound, got %v", err)
	}
}

func TestParseType(t *testing.T) {
	cases := map[string]Type{
		"extract":          RecipeExtraction,
		"thumbnail":        ThumbnailGeneration,
		"Recipe_Marketing": RecipeMarketing,
	}
	for input, want := range cases {
		got, ok := ParseType(input)
		if !ok || got != want {
			t.Fatalf("ParseType(%q) = %q, %v", input, got, ok)
		}
	}
	if _, ok := ParseType("dessert"); ok {
		t.Fatal("expected unknown type")
	}
}

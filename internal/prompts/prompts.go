package prompts

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"recipeforge/internal/services"
)

//go:embed defaults/*.md
var defaultFS embed.FS

// Type identifies a stage prompt.
type Type string

const (
	RecipeExtraction    Type = "recipe_extraction"
	ThumbnailGeneration Type = "thumbnail_generation"
	RecipeMarketing     Type = "recipe_marketing"
)

var resourceNames = map[Type]string{
	RecipeExtraction:    "extract-recipe-prompt.md",
	ThumbnailGeneration: "generate-thumbnail-prompt.md",
	RecipeMarketing:     "generate-descriptions-and-keywords-prompt.md",
}

// AllTypes returns every prompt type in pipeline order.
func AllTypes() []Type {
	return []Type{RecipeExtraction, ThumbnailGeneration, RecipeMarketing}
}

// ParseType accepts a type name ("recipe_extraction") or a stage alias
// ("extract", "thumbnail", "marketing").
func ParseType(value string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(RecipeExtraction), "extract", "extraction":
		return RecipeExtraction, true
	case string(ThumbnailGeneration), "thumbnail":
		return ThumbnailGeneration, true
	case string(RecipeMarketing), "marketing":
		return RecipeMarketing, true
	}
	return "", false
}

// ResourceName returns the file name backing t.
func ResourceName(t Type) string {
	return resourceNames[t]
}

// Repository holds the preloaded prompt text.
type Repository struct {
	prompts map[Type]string
	sources map[Type]string
}

// New loads every prompt. Files in dir, when set, take precedence over the
// embedded defaults. A prompt that cannot be found or is empty fails with
// ErrPromptNotFound.
func New(dir string) (*Repository, error) {
	return load(defaultFS, "defaults", dir)
}

func load(embedded fs.FS, embeddedRoot, dir string) (*Repository, error) {
	repo := &Repository{
		prompts: make(map[Type]string, len(resourceNames)),
		sources: make(map[Type]string, len(resourceNames)),
	}
	for _, t := range AllTypes() {
		name := resourceNames[t]
		text, source, err := readPrompt(embedded, embeddedRoot, dir, name)
		if err != nil {
			return nil, services.Wrap(services.ErrPromptNotFound, "prompts", "load", fmt.Sprintf("%s (%s)", t, name), err)
		}
		if strings.TrimSpace(text) == "" {
			return nil, services.Wrap(services.ErrPromptNotFound, "prompts", "load", fmt.Sprintf("%s (%s) is empty", t, name), nil)
		}
		repo.prompts[t] = text
		repo.sources[t] = source
	}
	return repo, nil
}

func readPrompt(embedded fs.FS, embeddedRoot, dir, name string) (string, string, error) {
	if dir = strings.TrimSpace(dir); dir != "" {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", "", err
		}
	}
	data, err := fs.ReadFile(embedded, embeddedRoot+"/"+name)
	if err != nil {
		return "", "", err
	}
	return string(data), "embedded:" + name, nil
}

// Get returns the prompt text for t. Unknown types return "".
func (r *Repository) Get(t Type) string {
	return r.prompts[t]
}

// Source reports where the prompt for t was loaded from.
func (r *Repository) Source(t Type) string {
	return r.sources[t]
}

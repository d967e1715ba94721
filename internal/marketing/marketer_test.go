package marketing

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"recipeforge/internal/capability"
	"recipeforge/internal/logging"
	"recipeforge/internal/prompts"
	"recipeforge/internal/recipes"
	"recipeforge/internal/services"
	"recipeforge/internal/testsupport"
)

func newMarketer(t *testing.T, repo *recipes.Repository, stub *testsupport.StubCapability) *Marketer {
	t.Helper()
	library, err := prompts.New("")
	if err != nil {
		t.Fatalf("prompts.New: %v", err)
	}
	return NewMarketer(repo, stub, library, "text-model", logging.NewNop())
}

func TestPrepareBeforeExtractionIsNotFound(t *testing.T) {
	repo, _ := testsupport.NewRepository(t)
	record := testsupport.NewRecipe(t, repo, 1)
	stub := testsupport.NewStubCapability()

	m := newMarketer(t, repo, stub)
	if err := m.Prepare(context.Background(), record); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := m.Execute(context.Background(), record); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Execute, got %v", err)
	}
	if stub.Calls() != 0 {
		t.Fatal("capability must not be called without a recipe")
	}
}

func TestPrepareRequiresThumbnail(t *testing.T) {
	ctx := context.Background()
	repo, _ := testsupport.NewRepository(t)
	record := testsupport.NewRecipe(t, repo, 1)
	if err := repo.SetRecipe(ctx, record.ID, &recipes.Recipe{Name: "Tacos"}); err != nil {
		t.Fatalf("SetRecipe: %v", err)
	}
	m := newMarketer(t, repo, testsupport.NewStubCapability())
	if err := m.Prepare(ctx, record); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExecuteOverwritesDescriptionAndKeywords(t *testing.T) {
	ctx := context.Background()
	repo, _ := testsupport.NewRepository(t)
	record := testsupport.NewRecipe(t, repo, 1)
	original := &recipes.Recipe{Name: "Tacos", Description: "plain", Ingredients: []string{"tortilla"}}
	original.SetKeywords([]string{"old"})
	if err := repo.SetRecipe(ctx, record.ID, original); err != nil {
		t.Fatalf("SetRecipe: %v", err)
	}
	thumb := testsupport.JPEG(t, 2)
	if err := repo.SetThumbnail(ctx, record.ID, thumb); err != nil {
		t.Fatalf("SetThumbnail: %v", err)
	}

	stub := testsupport.NewStubCapability(testsupport.TextReply(
		"```json\n{\"description\":\"Crispy street tacos.\",\"keywords\":[\"Mexican\",\"mexican\",\" tacos \",\"\"]}\n```"))
	m := newMarketer(t, repo, stub)
	if err := m.Prepare(ctx, record); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := m.Execute(ctx, record); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	recipe, err := repo.GetRecipe(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if recipe.Description != "Crispy street tacos." {
		t.Fatalf("description = %q", recipe.Description)
	}
	if got := recipe.Keywords(); !reflect.DeepEqual(got, []string{"Mexican", "tacos"}) {
		t.Fatalf("keywords = %v", got)
	}
	if len(recipe.Ingredients) != 1 {
		t.Fatal("other recipe fields must be preserved")
	}
	info, err := repo.LoadInfo(ctx, record.ID)
	if err != nil {
		t.Fatalf("LoadInfo: %v", err)
	}
	if info.Description != "Crispy street tacos." {
		t.Fatalf("info description = %q", info.Description)
	}

	req := stub.Requests()[0]
	if len(req.Parts) != 2 || req.Parts[0].Kind != capability.PartText || req.Parts[1].Kind != capability.PartImage {
		t.Fatalf("unexpected parts %+v", req.Parts)
	}
	var sent recipes.Recipe
	if err := json.Unmarshal([]byte(req.Parts[0].Text), &sent); err != nil || sent.Name != "Tacos" {
		t.Fatalf("recipe text part = %q (err=%v)", req.Parts[0].Text, err)
	}
	if !strings.Contains(req.Instructions, "marketing assistant") {
		t.Fatalf("instructions = %q", req.Instructions)
	}
}

func TestExecuteMalformedKeepsRecipe(t *testing.T) {
	ctx := context.Background()
	repo, _ := testsupport.NewRepository(t)
	record := testsupport.NewRecipe(t, repo, 1)
	if err := repo.SetRecipe(ctx, record.ID, &recipes.Recipe{Name: "Tacos", Description: "plain"}); err != nil {
		t.Fatalf("SetRecipe: %v", err)
	}
	if err := repo.SetThumbnail(ctx, record.ID, testsupport.JPEG(t, 0)); err != nil {
		t.Fatalf("SetThumbnail: %v", err)
	}
	m := newMarketer(t, repo, testsupport.NewStubCapability(testsupport.TextReply("Great tacos!")))
	if err := m.Execute(ctx, record); !errors.Is(err, services.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	recipe, err := repo.GetRecipe(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if recipe.Description != "plain" {
		t.Fatalf("description changed to %q", recipe.Description)
	}
}

func TestParseCopy(t *testing.T) {
	description, keywords, err := ParseCopy(`{"description":"Warm soup","keywords":"soup, Soup, winter"}`)
	if err != nil {
		t.Fatalf("ParseCopy: %v", err)
	}
	if description != "Warm soup" || !reflect.DeepEqual(keywords, []string{"soup", "winter"}) {
		t.Fatalf("got %q %v", description, keywords)
	}
	description, keywords, err = ParseCopy(`{"keywords":["a"]}`)
	if err != nil {
		t.Fatalf("ParseCopy without description: %v", err)
	}
	if description != "" || !reflect.DeepEqual(keywords, []string{"a"}) {
		t.Fatalf("got %q %v", description, keywords)
	}
}

func TestExecuteEmptyDescriptionKeepsInfoDescription(t *testing.T) {
	ctx := context.Background()
	repo, _ := testsupport.NewRepository(t)
	record := testsupport.NewRecipe(t, repo, 1)
	if err := repo.SetRecipe(ctx, record.ID, &recipes.Recipe{Name: "Tacos", Description: "D1"}); err != nil {
		t.Fatalf("SetRecipe: %v", err)
	}
	if err := repo.SetThumbnail(ctx, record.ID, testsupport.JPEG(t, 4)); err != nil {
		t.Fatalf("SetThumbnail: %v", err)
	}

	stub := testsupport.NewStubCapability(testsupport.TextReply(`{"description":"","keywords":["quick","Quick"]}`))
	m := newMarketer(t, repo, stub)
	if err := m.Execute(ctx, record); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	recipe, err := repo.GetRecipe(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if got := recipe.Keywords(); !reflect.DeepEqual(got, []string{"quick"}) {
		t.Fatalf("keywords = %v", got)
	}
	info, err := repo.LoadInfo(ctx, record.ID)
	if err != nil {
		t.Fatalf("LoadInfo: %v", err)
	}
	if info.Description != "D1" {
		t.Fatalf("info description = %q, want D1", info.Description)
	}
}

func TestExecuteLabelsThumbnailByContent(t *testing.T) {
	ctx := context.Background()
	repo, _ := testsupport.NewRepository(t)
	record := testsupport.NewRecipe(t, repo, 1)
	if err := repo.SetRecipe(ctx, record.ID, &recipes.Recipe{Name: "Tacos"}); err != nil {
		t.Fatalf("SetRecipe: %v", err)
	}
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if err := repo.SetThumbnail(ctx, record.ID, png); err != nil {
		t.Fatalf("SetThumbnail: %v", err)
	}

	stub := testsupport.NewStubCapability(testsupport.TextReply(`{"description":"Tasty","keywords":[]}`))
	m := newMarketer(t, repo, stub)
	if err := m.Execute(ctx, record); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := stub.Requests()[0].Parts[1].MIMEType; got != "image/png" {
		t.Fatalf("thumbnail part MIME = %q, want image/png", got)
	}
}

func TestDedupeKeywordsFoldsCase(t *testing.T) {
	got := DedupeKeywords([]string{"Straße", "STRASSE", "Käse", "käse"})
	if !reflect.DeepEqual(got, []string{"Straße", "Käse"}) {
		t.Fatalf("DedupeKeywords = %v", got)
	}
}

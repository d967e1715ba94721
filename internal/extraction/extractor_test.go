package extraction

import (
	"context"
	"errors"
	"testing"

	"recipeforge/internal/logging"
	"recipeforge/internal/prompts"
	"recipeforge/internal/services"
	"recipeforge/internal/testsupport"
)

func newPrompts(t *testing.T) *prompts.Repository {
	t.Helper()
	repo, err := prompts.New("")
	if err != nil {
		t.Fatalf("prompts.New: %v", err)
	}
	return repo
}

func TestExecutePersistsRecipe(t *testing.T) {
	ctx := context.Background()
	repo, _ := testsupport.NewRepository(t)
	record := testsupport.NewRecipe(t, repo, 2)
	stub := testsupport.NewStubCapability(testsupport.TextReply(`{"name":"Tacos","recipeIngredient":["tortilla","beef"]}`))

	extractor := NewExtractor(repo, stub, newPrompts(t), "vision-model", DefaultTemperature, logging.NewNop())
	if err := extractor.Prepare(ctx, record); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := extractor.Execute(ctx, record); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	recipe, err := repo.GetRecipe(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if recipe.Name != "Tacos" || len(recipe.Ingredients) != 2 {
		t.Fatalf("unexpected recipe %+v", recipe)
	}
	info, err := repo.LoadInfo(ctx, record.ID)
	if err != nil {
		t.Fatalf("LoadInfo: %v", err)
	}
	if info.Name != "Tacos" {
		t.Fatalf("info name = %q", info.Name)
	}

	requests := stub.Requests()
	if len(requests) != 1 {
		t.Fatalf("expected one request, got %d", len(requests))
	}
	req := requests[0]
	if len(req.Parts) != 2 || req.Parts[0].MIMEType != "image/jpeg" {
		t.Fatalf("expected two jpeg parts, got %+v", req.Parts)
	}
	if req.Temperature == nil || *req.Temperature != DefaultTemperature {
		t.Fatalf("temperature = %v", req.Temperature)
	}
	if req.Model != "vision-model" || req.Instructions == "" || req.WantImage {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestExecuteMalformedResponsePersistsNothing(t *testing.T) {
	ctx := context.Background()
	repo, _ := testsupport.NewRepository(t)
	record := testsupport.NewRecipe(t, repo, 1)
	stub := testsupport.NewStubCapability(testsupport.TextReply("not json"))

	extractor := NewExtractor(repo, stub, newPrompts(t), "m", DefaultTemperature, logging.NewNop())
	err := extractor.Execute(ctx, record)
	if !errors.Is(err, services.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if raw, ok := services.RawResponse(err); !ok || raw != "not json" {
		t.Fatalf("raw response = %q, %v", raw, ok)
	}
	if _, err := repo.GetRecipe(ctx, record.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after malformed response, got %v", err)
	}
}

func TestExecuteTagsCapabilityFailures(t *testing.T) {
	ctx := context.Background()
	repo, _ := testsupport.NewRepository(t)
	record := testsupport.NewRecipe(t, repo, 1)
	stub := testsupport.NewStubCapability(testsupport.ErrorReply(errors.New("quota exceeded")))

	extractor := NewExtractor(repo, stub, newPrompts(t), "m", DefaultTemperature, logging.NewNop())
	if err := extractor.Execute(ctx, record); !errors.Is(err, services.ErrCapability) {
		t.Fatalf("expected ErrCapability, got %v", err)
	}
}

func TestPrepareRejectsRecordWithoutOriginals(t *testing.T) {
	repo, _ := testsupport.NewRepository(t)
	record := testsupport.NewRecipe(t, repo, 1)
	record.OriginalImages = nil

	extractor := NewExtractor(repo, testsupport.NewStubCapability(), newPrompts(t), "m", DefaultTemperature, logging.NewNop())
	if err := extractor.Prepare(context.Background(), record); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	repo, _ := testsupport.NewRepository(t)
	extractor := NewExtractor(repo, testsupport.NewStubCapability(), newPrompts(t), "", DefaultTemperature, logging.NewNop())
	if health := extractor.HealthCheck(context.Background()); health.Ready {
		t.Fatalf("expected unhealthy without model, got %+v", health)
	}
}

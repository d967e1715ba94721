package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"recipeforge/internal/capability"
	"recipeforge/internal/logging"
	"recipeforge/internal/prompts"
	"recipeforge/internal/recipes"
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

func extractedRecipe(t *testing.T) (*recipes.Repository, *recipes.Record) {
	t.Helper()
	repo, _ := testsupport.NewRepository(t)
	record := testsupport.NewRecipe(t, repo, 2)
	if err := repo.SetRecipe(context.Background(), record.ID, &recipes.Recipe{Name: "Tacos"}); err != nil {
		t.Fatalf("SetRecipe: %v", err)
	}
	return repo, record
}

func TestPrepareRequiresExtraction(t *testing.T) {
	repo, _ := testsupport.NewRepository(t)
	record := testsupport.NewRecipe(t, repo, 1)
	gen := NewGenerator(repo, testsupport.NewStubCapability(), newPrompts(t), "image-model", logging.NewNop())
	if err := gen.Prepare(context.Background(), record); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExecuteStoresThumbnail(t *testing.T) {
	ctx := context.Background()
	repo, record := extractedRecipe(t)
	thumb := testsupport.JPEG(t, 5)
	stub := testsupport.NewStubCapability(testsupport.ImageReply(thumb))

	gen := NewGenerator(repo, stub, newPrompts(t), "image-model", logging.NewNop())
	if err := gen.Prepare(ctx, record); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := gen.Execute(ctx, record); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, ok, err := repo.GetThumbnail(ctx, record.ID)
	if err != nil || !ok {
		t.Fatalf("GetThumbnail ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(data, thumb) {
		t.Fatal("thumbnail bytes changed")
	}
	req := stub.Requests()[0]
	if !req.WantImage || len(req.Parts) != 2 || req.Model != "image-model" {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestExecuteConvertsPNG(t *testing.T) {
	ctx := context.Background()
	repo, record := extractedRecipe(t)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	stub := testsupport.NewStubCapability(testsupport.Reply{Response: capability.Response{
		Images: []capability.Image{{MIMEType: "image/png", Data: buf.Bytes()}},
	}})

	gen := NewGenerator(repo, stub, newPrompts(t), "image-model", logging.NewNop())
	if err := gen.Execute(ctx, record); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, _, err := repo.GetThumbnail(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetThumbnail: %v", err)
	}
	if len(data) < 2 || data[0] != 0xff || data[1] != 0xd8 {
		t.Fatalf("expected JPEG magic, got % x", data[:2])
	}
}

func TestExecuteAcceptsDataURLText(t *testing.T) {
	ctx := context.Background()
	repo, record := extractedRecipe(t)
	thumb := testsupport.JPEG(t, 1)
	stub := testsupport.NewStubCapability(testsupport.TextReply(`{"thumbnail":"` + capability.DataURL("image/jpeg", thumb) + `"}`))

	gen := NewGenerator(repo, stub, newPrompts(t), "image-model", logging.NewNop())
	if err := gen.Execute(ctx, record); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	info, err := repo.LoadInfo(ctx, record.ID)
	if err != nil {
		t.Fatalf("LoadInfo: %v", err)
	}
	if !info.HasThumbnail() {
		t.Fatal("expected thumbnail key on record")
	}
}

func TestExecuteWithoutImageIsMalformed(t *testing.T) {
	ctx := context.Background()
	repo, record := extractedRecipe(t)
	stub := testsupport.NewStubCapability(testsupport.TextReply("I can only describe the dish."))

	gen := NewGenerator(repo, stub, newPrompts(t), "image-model", logging.NewNop())
	err := gen.Execute(ctx, record)
	if !errors.Is(err, services.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if _, ok, _ := repo.GetThumbnail(ctx, record.ID); ok {
		t.Fatal("no thumbnail should be stored")
	}
}

func TestExecuteUndecodableImageIsMalformed(t *testing.T) {
	ctx := context.Background()
	repo, record := extractedRecipe(t)
	webp := []byte("RIFF\x1a\x00\x00\x00WEBPVP8 \x0e\x00\x00\x00")
	stub := testsupport.NewStubCapability(testsupport.Reply{Response: capability.Response{
		Images: []capability.Image{{MIMEType: "image/webp", Data: webp}},
	}})

	gen := NewGenerator(repo, stub, newPrompts(t), "image-model", logging.NewNop())
	err := gen.Execute(ctx, record)
	if !errors.Is(err, services.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if _, ok, _ := repo.GetThumbnail(ctx, record.ID); ok {
		t.Fatal("undecodable image must not be stored as thumbnail.jpg")
	}
}

func TestExecuteConvertsMislabeledPNG(t *testing.T) {
	ctx := context.Background()
	repo, record := extractedRecipe(t)
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	stub := testsupport.NewStubCapability(testsupport.ImageReply(buf.Bytes()))

	gen := NewGenerator(repo, stub, newPrompts(t), "image-model", logging.NewNop())
	if err := gen.Execute(ctx, record); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, _, err := repo.GetThumbnail(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetThumbnail: %v", err)
	}
	if len(data) < 3 || data[0] != 0xff || data[1] != 0xd8 || data[2] != 0xff {
		t.Fatalf("expected JPEG magic, got % x", data)
	}
}

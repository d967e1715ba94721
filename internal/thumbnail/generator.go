// Package thumbnail generates a picture of the finished dish from the
// recipe photographs.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"

	_ "image/gif"
	_ "image/png"

	"recipeforge/internal/capability"
	"recipeforge/internal/logging"
	"recipeforge/internal/prompts"
	"recipeforge/internal/recipes"
	"recipeforge/internal/services"
	"recipeforge/internal/stage"
)

const jpegQuality = 90

// Generator is the second pipeline stage.
type Generator struct {
	repo         *recipes.Repository
	capability   capability.Capability
	instructions string
	model        string
	logger       *slog.Logger
}

// NewGenerator constructs the thumbnail stage handler.
func NewGenerator(repo *recipes.Repository, capable capability.Capability, library *prompts.Repository, model string, logger *slog.Logger) *Generator {
	g := &Generator{
		repo:       repo,
		capability: capable,
		model:      model,
	}
	if library != nil {
		g.instructions = library.Get(prompts.ThumbnailGeneration)
	}
	g.SetLogger(logger)
	return g
}

// SetLogger updates the generator's logging destination.
func (g *Generator) SetLogger(logger *slog.Logger) {
	g.logger = logging.NewComponentLogger(logger, "thumbnail")
}

func (g *Generator) Name() string { return stage.Thumbnail }

// Prepare requires a structured recipe from extraction.
func (g *Generator) Prepare(ctx context.Context, record *recipes.Record) error {
	_, err := stage.RequireRecipe(ctx, g.repo, record.ID, stage.Thumbnail)
	return err
}

// Execute asks for an image of the dish and stores it as thumbnail.jpg.
func (g *Generator) Execute(ctx context.Context, record *recipes.Record) error {
	logger := logging.WithContext(ctx, g.logger)

	parts, err := stage.LoadOriginalParts(ctx, g.repo, record, stage.Thumbnail)
	if err != nil {
		return err
	}
	resp, err := g.capability.Generate(ctx, capability.Request{
		Model:        g.model,
		Instructions: g.instructions,
		Parts:        parts,
		WantImage:    true,
	})
	if err != nil {
		return stage.CapabilityError(stage.Thumbnail, err)
	}

	img, ok := resp.FirstImage()
	if !ok {
		img, ok = capability.ExtractImageFromText(resp.Text)
	}
	if !ok {
		logger.Warn("thumbnail response carried no image",
			logging.String(logging.FieldEventType, "malformed_response"),
			logging.String(logging.FieldErrorHint, "check that the image model supports image output"),
			logging.Int("response_length", len(resp.Text)),
		)
		return services.Malformed(stage.Thumbnail, resp.Text, errors.New("response contained no image data"))
	}

	data, converted, err := toJPEG(img)
	if err != nil {
		logger.Warn("thumbnail image could not be converted to JPEG",
			logging.String(logging.FieldEventType, "malformed_response"),
			logging.String(logging.FieldErrorHint, "ask the image model for PNG, JPEG or GIF output"),
			logging.String("source_mime", img.MIMEType),
			logging.Error(err),
		)
		return services.Malformed(stage.Thumbnail, resp.Text, err)
	}
	if err := g.repo.SetThumbnail(ctx, record.ID, data); err != nil {
		return err
	}
	logger.Info("thumbnail generated",
		logging.String("source_mime", img.MIMEType),
		logging.Bool("converted", converted),
		logging.Int("thumbnail_bytes", len(data)),
	)
	return nil
}

// toJPEG re-encodes decodable non-JPEG output so thumbnail.jpg matches its
// extension. Data that is neither JPEG nor decodable is rejected.
func toJPEG(img capability.Image) ([]byte, bool, error) {
	if isJPEG(img.Data) {
		return img.Data, false, nil
	}
	decoded, format, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, false, fmt.Errorf("decode %s thumbnail: %w", mimeLabel(img.MIMEType), err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, decoded, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, false, fmt.Errorf("encode %s thumbnail as jpeg: %w", format, err)
	}
	return buf.Bytes(), true, nil
}

func isJPEG(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xff && data[1] == 0xd8 && data[2] == 0xff
}

func mimeLabel(mime string) string {
	if mime == "" {
		return "unlabeled"
	}
	return mime
}

// HealthCheck reports whether the stage can run.
func (g *Generator) HealthCheck(context.Context) stage.Health {
	return stage.CheckDependencies(stage.Thumbnail, g.capability, g.instructions, g.model)
}

package capability

import (
	"context"

	"recipeforge/internal/services"
)

// Capability produces text or images from instructions and content parts.
type Capability interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// PartKind distinguishes text from image content.
type PartKind string

const (
	PartText  PartKind = "text"
	PartImage PartKind = "image"
)

// Part is one ordered piece of user content.
type Part struct {
	Kind     PartKind
	Text     string
	Data     []byte
	MIMEType string
}

// Text builds a text part.
func Text(s string) Part {
	return Part{Kind: PartText, Text: s}
}

// ImagePart builds an image part.
func ImagePart(data []byte, mimeType string) Part {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return Part{Kind: PartImage, Data: data, MIMEType: mimeType}
}

// Request is a single generation call.
type Request struct {
	Model        string
	Instructions string
	Parts        []Part
	// Temperature is left to the provider default when nil.
	Temperature *float64
	// WantImage asks for image output.
	WantImage bool
}

// Image is generated image output.
type Image struct {
	MIMEType string
	Data     []byte
}

// Response is the provider's reply.
type Response struct {
	Text   string
	Images []Image
}

// FirstImage returns the first image in the response.
func (r Response) FirstImage() (Image, bool) {
	for _, image := range r.Images {
		if len(image.Data) > 0 {
			return image, true
		}
	}
	return Image{}, false
}

// Float returns a pointer to v, for Request.Temperature.
func Float(v float64) *float64 { return &v }

// Router sends image requests to Image and everything else to Text.
type Router struct {
	Text  Capability
	Image Capability
}

func (r Router) Generate(ctx context.Context, req Request) (Response, error) {
	target := r.Text
	if req.WantImage {
		target = r.Image
	}
	if target == nil {
		return Response{}, services.Wrap(services.ErrConfiguration, "capability", "route", "no provider configured for request", nil)
	}
	return target.Generate(ctx, req)
}

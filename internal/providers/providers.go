package providers

import (
	"context"
)

// Config represents the configuration for a single generation call
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
}

// Image is a base64 encoded image with its MIME type
type Image struct {
	MimeType string
	Data     string
}

// ImageTransformer sends an image and an instruction to a generative model and returns the
// generated image. Implementations make exactly one upstream call per invocation.
type ImageTransformer interface {
	TransformImage(ctx context.Context, config Config, image Image) (*Image, error)
}

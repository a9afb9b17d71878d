package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/halloween/internal/providers"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash-image-preview"
)

// Gemini is a provider for Google Gemini image generation
type Gemini struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a new Gemini provider
func New(apiKey, baseURL string, client *http.Client) *Gemini {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Gemini{
		APIKey:     apiKey,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: client,
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string        `json:"role,omitempty"`
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineBlob `json:"inline_data,omitempty"`
}

type inlineBlob struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
	Temperature        *float64 `json:"temperature,omitempty"`
}

// TransformImage sends the prompt and image in a single generateContent call and returns the
// first inline image of the response.
func (g *Gemini) TransformImage(ctx context.Context, config providers.Config, image providers.Image) (*providers.Image, error) {
	resp, err := g.GenerateContent(ctx, config, image)
	if err != nil {
		return nil, err
	}

	img, err := resp.FirstImage()
	if err != nil {
		if text := resp.Text(); text != "" {
			slog.Warn("Gemini answered without an image", "text", truncate(text, 200))
		}
		return nil, err
	}

	slog.Info("Received generated image", "model", config.Model, "mime_type", img.MimeType, "length", len(img.Data))
	return &providers.Image{MimeType: img.MimeType, Data: img.Data}, nil
}

// GenerateContent performs one generateContent request and normalises the response.
func (g *Gemini) GenerateContent(ctx context.Context, config providers.Config, image providers.Image) (*Response, error) {
	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	gc := &generationConfig{ResponseModalities: []string{"TEXT", "IMAGE"}}
	if config.Temperature > 0 {
		gc.Temperature = &config.Temperature
	}

	requestBody, err := json.Marshal(generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []requestPart{
				{Text: config.Prompt},
				{InlineData: &inlineBlob{MimeType: image.MimeType, Data: image.Data}},
			},
		}},
		GenerationConfig: gc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.BaseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.APIKey)

	slog.Debug("Calling Gemini", "model", model, "image_length", len(image.Data))

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, normalizeError(resp.StatusCode, body)
	}

	return ParseResponse(body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

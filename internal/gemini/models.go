package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/samber/lo"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ModelInfo describes a model that can serve generateContent requests.
type ModelInfo struct {
	Name        string
	DisplayName string
	Description string
	Methods     []string
}

// SupportsImages is a name-based guess; the API does not flag image output explicitly.
func (m ModelInfo) SupportsImages() bool {
	return strings.Contains(strings.ToLower(m.Name), "image")
}

// ListModels lists the models available to apiKey that support generateContent.
func ListModels(ctx context.Context, apiKey string, opts ...option.ClientOption) ([]ModelInfo, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	var models []ModelInfo
	iter := client.ListModels(ctx)
	for {
		m, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list models: %w", err)
		}
		if !lo.Contains(m.SupportedGenerationMethods, "generateContent") {
			continue
		}
		models = append(models, ModelInfo{
			Name:        strings.TrimPrefix(m.Name, "models/"),
			DisplayName: m.DisplayName,
			Description: m.Description,
			Methods:     m.SupportedGenerationMethods,
		})
	}

	return models, nil
}

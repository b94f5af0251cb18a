package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/mohammad-safakhou/sourcer/config"
)

// GeminiClient answers prompts with Google's Gemini models.
type GeminiClient struct {
	client      *genai.Client
	temperature float32
}

// NewGeminiClient opens a Gemini client. Extra options are appended after
// the API key, e.g. to override the endpoint.
func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig, temperature float64, opts ...option.ClientOption) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("Gemini API key not configured")
	}
	all := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	client, err := genai.NewClient(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiClient{client: client, temperature: float32(temperature)}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, p Prompt) (string, error) {
	if p.Model == "" {
		return "", fmt.Errorf("gemini: model is required")
	}
	model := g.client.GenerativeModel(p.Model)
	model.SetTemperature(g.temperature)
	if p.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(p.System)}}
	}
	resp, err := model.GenerateContent(ctx, genai.Text(p.User))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		break
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}
	return strings.TrimSpace(b.String()), nil
}

// Close releases the underlying connection.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

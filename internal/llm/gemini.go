package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	genai "google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient is a thin wrapper around the official genai client. One
// prompt in, one text response out; no streaming, no retries.
type GeminiClient struct {
	models contentGenerator
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	// An empty key lets the genai client fall back to GEMINI_API_KEY/GOOGLE_API_KEY.
	if key := strings.TrimSpace(apiKey); key != "" {
		cfg.APIKey = key
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init genai client: %w", err)
	}
	return newGeminiClient(cli.Models, model), nil
}

func newGeminiClient(models contentGenerator, model string) *GeminiClient {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return &GeminiClient{models: models, model: model}
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }

// Generate sends the composed prompt and returns the model's text unmodified.
func (g *GeminiClient) Generate(ctx context.Context, extractedText, userDetails string) (string, error) {
	full := BuildPrompt(extractedText, userDetails)
	log.Printf("llm: request to %s: %d bytes", g.model, len(full))

	resp, err := g.models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
		&genai.GenerateContentConfig{ResponseMIMEType: "text/plain"},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

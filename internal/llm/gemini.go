package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider calls the Gemini API through the official client.
type GeminiProvider struct {
	endpoint string
}

// NewGeminiProvider creates a Gemini client factory. An empty endpoint uses the public API.
func NewGeminiProvider(endpoint string) *GeminiProvider {
	return &GeminiProvider{endpoint: endpoint}
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Generate opens a client bound to the request secret, runs one call and closes it.
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	opts := []option.ClientOption{option.WithAPIKey(req.Secret)}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(req.Model)
	if req.Persona != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.Persona)}}
	}
	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return responseText(resp), nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

const defaultOpenAIBaseURL = "https://api.openai.com"

// OpenAIProvider calls the chat completions endpoint.
type OpenAIProvider struct {
	baseURL string
	client  HTTPClient
}

// NewOpenAIProvider creates the OpenAI client. An empty baseURL uses the public API.
func NewOpenAIProvider(baseURL string, client HTTPClient) *OpenAIProvider {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAIProvider{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (p *OpenAIProvider) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if req.Persona != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.Persona})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})
	payload := map[string]any{
		"model":    req.Model,
		"messages": messages,
	}
	if req.SessionID != "" {
		payload["user"] = req.SessionID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode openai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create openai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.Secret)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("openai", resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read openai response: %w", err)
	}
	return gjson.GetBytes(raw, "choices.0.message.content").String(), nil
}

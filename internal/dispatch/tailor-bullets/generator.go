package tailorbullets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apphttp "apply-orchestrator/internal/common/http"
)

// Generator is a text-generation backend taking one prompt and returning
// freeform text.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// HTTPGenerator calls a GenAI gateway at <baseURL>/api/ai/generate.
type HTTPGenerator struct {
	baseURL   string
	apiKey    string
	maxTokens int
	client    *apphttp.Client
}

func NewHTTPGenerator(baseURL, apiKey string, maxTokens int, client *apphttp.Client) *HTTPGenerator {
	return &HTTPGenerator{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		maxTokens: maxTokens,
		client:    client,
	}
}

func (g *HTTPGenerator) Name() string { return "http" }

func (g *HTTPGenerator) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	requestBody := map[string]interface{}{
		"prompt":      prompt,
		"temperature": temperature,
		"max_tokens":  g.maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	if g.apiKey != "" {
		requestBody["api_key"] = g.apiKey
	}

	resp, err := g.client.PostJSON(ctx, g.baseURL+"/api/ai/generate", requestBody)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", fmt.Errorf("genai status %d: %s", resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	var apiResponse struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body, &apiResponse); err != nil {
		return "", fmt.Errorf("decode genai response: %w", err)
	}
	return apiResponse.Text, nil
}

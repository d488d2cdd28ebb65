package tailorbullets

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainGenerator adapts any langchaingo model to Generator.
type LangChainGenerator struct {
	name      string
	model     llms.Model
	maxTokens int
}

func NewLangChainGenerator(name string, model llms.Model, maxTokens int) *LangChainGenerator {
	return &LangChainGenerator{name: name, model: model, maxTokens: maxTokens}
}

func (g *LangChainGenerator) Name() string { return g.name }

func (g *LangChainGenerator) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	opts := []llms.CallOption{llms.WithTemperature(temperature)}
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}
	return llms.GenerateFromSinglePrompt(ctx, g.model, prompt, opts...)
}

// NewOpenAIGenerator builds an OpenAI-compatible backend. baseURL may be
// empty to use the public endpoint.
func NewOpenAIGenerator(apiKey, model, baseURL string, maxTokens int) (*LangChainGenerator, error) {
	opts := []openai.Option{openai.WithToken(apiKey)}
	if model != "" {
		opts = append(opts, openai.WithModel(model))
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return NewLangChainGenerator("openai", llm, maxTokens), nil
}

// NewGoogleAIGenerator builds a Gemini backend.
func NewGoogleAIGenerator(ctx context.Context, apiKey, model string, maxTokens int) (*LangChainGenerator, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create googleai client: %w", err)
	}
	return NewLangChainGenerator("googleai", llm, maxTokens), nil
}

// Package llm adapts langchaingo models to the chat, embedding and vision
// roles used by the agents.
package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	defaultOllamaURL = "http://localhost:11434"
)

// ProviderConfig selects and addresses a model backend.
type ProviderConfig struct {
	Provider string
	BaseURL  string
	APIKey   string
}

// model is a langchaingo client that can both generate and embed.
type model interface {
	llms.Model
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

func newModel(p ProviderConfig, name string, embedding bool) (model, error) {
	switch p.Provider {
	case "", ProviderOllama:
		baseURL := p.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		m, err := ollama.New(ollama.WithModel(name), ollama.WithServerURL(baseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama model %s: %w", name, err)
		}
		return m, nil
	case ProviderOpenAI:
		opts := []openai.Option{openai.WithToken(p.APIKey)}
		if embedding {
			opts = append(opts, openai.WithEmbeddingModel(name))
		} else {
			opts = append(opts, openai.WithModel(name))
		}
		if p.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(p.BaseURL))
		}
		m, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai model %s: %w", name, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", p.Provider)
	}
}

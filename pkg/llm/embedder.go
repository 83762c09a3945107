package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
)

type EmbedderConfig struct {
	ProviderConfig
	Model     string
	BatchSize int
}

// NewEmbedderWithConfig returns a batching embedder for the configured
// provider.
func NewEmbedderWithConfig(config EmbedderConfig) (embeddings.Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest"
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 32
	}

	m, err := newModel(config.ProviderConfig, config.Model, true)
	if err != nil {
		return nil, err
	}

	emb, err := embeddings.NewEmbedder(m,
		embeddings.WithBatchSize(config.BatchSize),
		embeddings.WithStripNewLines(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return emb, nil
}

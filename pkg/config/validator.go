package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	add := func(field, msg string) {
		errors = append(errors, ValidationError{Field: field, Message: msg})
	}

	// LLM
	switch c.LLM.Provider {
	case "ollama":
		if c.LLM.BaseURL == "" {
			add("llm.base_url", "Ollama base URL is required")
		}
	case "openai":
		if c.LLM.APIKey == "" {
			add("llm.api_key", "api_key is required for the openai provider")
		}
	default:
		add("llm.provider", fmt.Sprintf("unknown provider %q", c.LLM.Provider))
	}

	if c.LLM.BaseURL != "" {
		if u, err := url.Parse(c.LLM.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			add("llm.base_url", "invalid base URL")
		}
	}

	models := []struct {
		name string
		ModelConfig
	}{{"analysis", c.LLM.Analysis}, {"fast", c.LLM.Fast}}
	for _, m := range models {
		name := m.name
		if m.MaxTokens < 1 || m.MaxTokens > 32768 {
			add("llm."+name+".max_tokens", "max_tokens must be between 1 and 32768")
		}
		if t := m.Temp(); t < 0 || t > 1 {
			add("llm."+name+".temperature", "temperature must be between 0 and 1")
		}
	}

	if c.Embedding.BatchSize < 1 {
		add("embedding.batch_size", "batch_size must be positive")
	}

	// Database
	if c.Database.URL != "" {
		if u, err := url.Parse(c.Database.URL); err != nil || u.Scheme == "" {
			add("database.url", "invalid database URL")
		}
	}
	if c.Database.VectorDim < 1 {
		add("database.vector_dim", "vector_dim must be positive")
	}
	if c.Database.BatchSize < 1 {
		add("database.batch_size", "batch_size must be positive")
	}

	// Processor
	if c.Processor.ChunkSize < 1 {
		add("processor.chunk_size", "chunk_size must be positive")
	}
	if c.Processor.ChunkOverlap < 0 || c.Processor.ChunkOverlap >= c.Processor.ChunkSize {
		add("processor.chunk_overlap", "chunk_overlap must be non-negative and less than chunk_size")
	}
	if c.Processor.MaxImages < 0 {
		add("processor.max_images", "max_images must not be negative")
	}

	if c.Analysis.MaxChars < 1 {
		add("analysis.max_chars", "max_chars must be positive")
	}
	if c.QA.TopK < 1 {
		add("qa.top_k", "top_k must be positive")
	}

	// Memory
	switch c.Memory.Backend {
	case "memory", "redis":
	default:
		add("memory.backend", "backend must be memory or redis")
	}
	if c.Memory.MaxMessages < 2 {
		add("memory.max_messages", "max_messages must hold at least one exchange")
	}

	if c.Scraper.RateLimit <= 0 {
		add("scraper.rate_limit", "rate_limit must be positive")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port", "port must be between 1 and 65535")
	}
	if c.Server.MaxUploadMB < 1 {
		add("server.max_upload_mb", "max_upload_mb must be positive")
	}

	return errors
}

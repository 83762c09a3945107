package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  provider: "ollama"
  base_url: "http://localhost:11434"
  analysis:
    model: "qwen2.5:14b"
    max_tokens: 8192
    temperature: 0.2
  fast:
    model: "llama3.2"
  vision_model: "llava:13b"
  vision_interval: 1s

database:
  url: "postgres://localhost:5432/test"
  table_name: "test_chunks"
  vector_dim: 384

processor:
  chunk_size: 500
  chunk_overlap: 100
  image_cache_dir: "/var/cache/courseplan"

memory:
  backend: "redis"
  redis_addr: "redis:6379"
  ttl: 24h

server:
  port: 9000
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, "qwen2.5:14b", config.LLM.Analysis.Model)
	assert.Equal(t, 8192, config.LLM.Analysis.MaxTokens)
	assert.Equal(t, 0.2, config.LLM.Analysis.Temp())
	assert.Equal(t, "llama3.2", config.LLM.Fast.Model)
	assert.Equal(t, 0.5, config.LLM.Fast.Temp())
	assert.Equal(t, 2048, config.LLM.Fast.MaxTokens)
	assert.Equal(t, time.Second, config.LLM.VisionInterval)
	assert.Equal(t, "postgres://localhost:5432/test", config.Database.URL)
	assert.Equal(t, 384, config.Database.VectorDim)
	assert.Equal(t, 32, config.Database.BatchSize)
	assert.Equal(t, 500, config.Processor.ChunkSize)
	assert.Equal(t, 10, config.Processor.MaxImages)
	assert.Equal(t, "/var/cache/courseplan", config.Processor.ImageCacheDir)
	assert.Equal(t, "redis", config.Memory.Backend)
	assert.Equal(t, 24*time.Hour, config.Memory.TTL)
	assert.Equal(t, 20, config.Memory.MaxMessages)
	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, 20, config.Server.MaxUploadMB)

	assert.Empty(t, config.Validate())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigKeepsZeroTemperature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
llm:
  analysis:
    temperature: 0
  fast:
    temperature: 0
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	require.NotNil(t, config.LLM.Analysis.Temperature)
	assert.Zero(t, *config.LLM.Analysis.Temperature)
	require.NotNil(t, config.LLM.Fast.Temperature)
	assert.Zero(t, *config.LLM.Fast.Temperature)
	assert.Empty(t, config.Validate())
}

func TestDefaultConfigIsValid(t *testing.T) {
	config, err := getDefaultConfig()
	require.NoError(t, err)

	assert.Equal(t, "ollama", config.LLM.Provider)
	assert.Equal(t, "llama3.1", config.LLM.Fast.Model)
	assert.Equal(t, 0.3, config.LLM.Analysis.Temp())
	assert.Equal(t, 16384, config.LLM.Analysis.MaxTokens)
	assert.Equal(t, 0.5, config.LLM.Fast.Temp())
	assert.Equal(t, 2048, config.LLM.Fast.MaxTokens)
	assert.Equal(t, 50000, config.Analysis.MaxChars)
	assert.Equal(t, 6, config.QA.TopK)
	assert.Equal(t, 10, config.QA.HistoryLimit)
	assert.Empty(t, config.Validate())
}

func TestConfigValidation(t *testing.T) {
	valid := func() Config {
		c := Config{}
		applyDefaults(&c)
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		fields []string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name: "bad llm settings",
			mutate: func(c *Config) {
				c.LLM.BaseURL = "invalid-url"
				c.LLM.Analysis.MaxTokens = 50000
				c.LLM.Fast.Temperature = float64Ptr(3.0)
			},
			fields: []string{"llm.base_url", "llm.analysis.max_tokens", "llm.fast.temperature"},
		},
		{
			name: "openai without key",
			mutate: func(c *Config) {
				c.LLM.Provider = "openai"
				c.LLM.BaseURL = ""
			},
			fields: []string{"llm.api_key"},
		},
		{
			name:   "unknown provider",
			mutate: func(c *Config) { c.LLM.Provider = "bard" },
			fields: []string{"llm.provider"},
		},
		{
			name: "bad storage settings",
			mutate: func(c *Config) {
				c.Database.URL = "invalid-url"
				c.Database.VectorDim = -1
				c.Memory.Backend = "memcached"
			},
			fields: []string{"database.url", "database.vector_dim", "memory.backend"},
		},
		{
			name: "overlap not below chunk size",
			mutate: func(c *Config) {
				c.Processor.ChunkSize = 100
				c.Processor.ChunkOverlap = 100
			},
			fields: []string{"processor.chunk_overlap"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)

			errs := c.Validate()
			var got []string
			for _, e := range errs {
				got = append(got, e.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")
	t.Setenv("DATABASE_URL", "postgres://env-db:5432/test")
	t.Setenv("REDIS_ADDR", "env-redis:6379")
	t.Setenv("PORT", "8080")
	t.Setenv("IMAGE_CACHE_DIR", "/tmp/images")

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "http://env-ollama:11434", config.LLM.BaseURL)
	assert.Equal(t, "postgres://env-db:5432/test", config.Database.URL)
	assert.Equal(t, "env-redis:6379", config.Memory.RedisAddr)
	assert.Equal(t, "redis", config.Memory.Backend)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "/tmp/images", config.Processor.ImageCacheDir)
}

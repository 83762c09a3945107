package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`

		// Analysis drives decomposition; Fast answers chat questions.
		Analysis ModelConfig `yaml:"analysis"`
		Fast     ModelConfig `yaml:"fast"`

		VisionModel    string        `yaml:"vision_model"`
		VisionInterval time.Duration `yaml:"vision_interval"`
	} `yaml:"llm"`

	Embedding struct {
		Model     string `yaml:"model"`
		BatchSize int    `yaml:"batch_size"`
	} `yaml:"embedding"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
		BatchSize int    `yaml:"batch_size"`
	} `yaml:"database"`

	Processor struct {
		ChunkSize     int    `yaml:"chunk_size"`
		ChunkOverlap  int    `yaml:"chunk_overlap"`
		MaxImages     int    `yaml:"max_images"`
		MinImageSize  int    `yaml:"min_image_size"`
		ImageCacheDir string `yaml:"image_cache_dir"`
	} `yaml:"processor"`

	Analysis struct {
		MaxChars int `yaml:"max_chars"`
	} `yaml:"analysis"`

	QA struct {
		TopK         int `yaml:"top_k"`
		HistoryLimit int `yaml:"history_limit"`
	} `yaml:"qa"`

	Memory struct {
		Backend       string        `yaml:"backend"`
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		MaxMessages   int           `yaml:"max_messages"`
		TTL           time.Duration `yaml:"ttl"`
	} `yaml:"memory"`

	Scraper struct {
		Timeout        time.Duration `yaml:"timeout"`
		RateLimit      float64       `yaml:"rate_limit"`
		IgnorePatterns []string      `yaml:"ignore_patterns"`
	} `yaml:"scraper"`

	Server struct {
		Port        int    `yaml:"port"`
		MaxUploadMB int    `yaml:"max_upload_mb"`
		Mode        string `yaml:"mode"`
	} `yaml:"server"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// ModelConfig leaves Temperature nil when unset so an explicit 0 survives
// defaulting.
type ModelConfig struct {
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
}

// Temp is the configured temperature, 0 when unset.
func (m ModelConfig) Temp() float64 {
	if m.Temperature == nil {
		return 0
	}
	return *m.Temperature
}

func float64Ptr(v float64) *float64 {
	return &v
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/courseplan/config.yaml"),
			"/etc/courseplan/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Environment wins over the file
	mergeWithEnv(&config)

	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "ollama"
	}
	if config.LLM.BaseURL == "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.Analysis.Model == "" {
		config.LLM.Analysis.Model = "llama3.1"
	}
	if config.LLM.Analysis.Temperature == nil {
		config.LLM.Analysis.Temperature = float64Ptr(0.3)
	}
	if config.LLM.Analysis.MaxTokens == 0 {
		config.LLM.Analysis.MaxTokens = 16384
	}
	if config.LLM.Fast.Model == "" {
		config.LLM.Fast.Model = config.LLM.Analysis.Model
	}
	if config.LLM.Fast.Temperature == nil {
		config.LLM.Fast.Temperature = float64Ptr(0.5)
	}
	if config.LLM.Fast.MaxTokens == 0 {
		config.LLM.Fast.MaxTokens = 2048
	}
	if config.LLM.VisionModel == "" {
		config.LLM.VisionModel = "llava"
	}
	if config.LLM.VisionInterval == 0 {
		config.LLM.VisionInterval = 500 * time.Millisecond
	}

	if config.Embedding.Model == "" {
		config.Embedding.Model = "nomic-embed-text:latest"
	}
	if config.Embedding.BatchSize == 0 {
		config.Embedding.BatchSize = 32
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "coursework_chunks"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 32
	}

	if config.Processor.ChunkSize == 0 {
		config.Processor.ChunkSize = 1000
	}
	if config.Processor.ChunkOverlap == 0 {
		config.Processor.ChunkOverlap = 200
	}
	if config.Processor.MaxImages == 0 {
		config.Processor.MaxImages = 10
	}
	if config.Processor.MinImageSize == 0 {
		config.Processor.MinImageSize = 100
	}
	if config.Processor.ImageCacheDir == "" {
		config.Processor.ImageCacheDir = "image_cache"
	}

	if config.Analysis.MaxChars == 0 {
		config.Analysis.MaxChars = 50000
	}

	if config.QA.TopK == 0 {
		config.QA.TopK = 6
	}
	if config.QA.HistoryLimit == 0 {
		config.QA.HistoryLimit = 10
	}

	if config.Memory.Backend == "" {
		config.Memory.Backend = "memory"
	}
	if config.Memory.RedisAddr == "" {
		config.Memory.RedisAddr = "localhost:6379"
	}
	if config.Memory.MaxMessages == 0 {
		config.Memory.MaxMessages = 20
	}

	if config.Scraper.Timeout == 0 {
		config.Scraper.Timeout = 10 * time.Second
	}
	if config.Scraper.RateLimit == 0 {
		config.Scraper.RateLimit = 2.0
	}

	if config.Server.Port == 0 {
		config.Server.Port = 8000
	}
	if config.Server.MaxUploadMB == 0 {
		config.Server.MaxUploadMB = 20
	}
	if config.Server.Mode == "" {
		config.Server.Mode = "release"
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
}

func mergeWithEnv(config *Config) {
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Memory.RedisAddr = addr
		config.Memory.Backend = "redis"
	}
	if port := cast.ToInt(os.Getenv("PORT")); port > 0 {
		config.Server.Port = port
	}
	if dir := os.Getenv("IMAGE_CACHE_DIR"); dir != "" {
		config.Processor.ImageCacheDir = dir
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
}

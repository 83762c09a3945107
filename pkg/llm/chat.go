package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/xhad/courseplan/internal/models"
)

// ErrEmptyResponse is returned when the model answers with no choices.
var ErrEmptyResponse = errors.New("empty response from model")

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	ProviderConfig
	Model       string
	Temperature float64
	MaxTokens   int
}

// ChatEngine turns a system prompt, prior turns and a new prompt into one
// model call.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

// NewWithConfig creates a ChatEngine backed by the configured provider.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	config, err := normalize(config)
	if err != nil {
		return nil, err
	}

	m, err := newModel(config.ProviderConfig, config.Model, false)
	if err != nil {
		return nil, err
	}

	return &ChatEngine{config: config, llm: m}, nil
}

// NewWithModel wraps an existing langchaingo model.
func NewWithModel(config ChatConfig, m llms.Model) (*ChatEngine, error) {
	config, err := normalize(config)
	if err != nil {
		return nil, err
	}
	return &ChatEngine{config: config, llm: m}, nil
}

func normalize(config ChatConfig) (ChatConfig, error) {
	if config.Model == "" {
		config.Model = "llama3.1"
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return config, fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return config, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2048
	}
	return config, nil
}

// Generate implements types.ChatModel.
func (ce *ChatEngine) Generate(ctx context.Context, system string, history []models.Message, prompt string) (string, error) {
	content := make([]llms.MessageContent, 0, len(history)+2)
	if system != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Role == models.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, m.Content))
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	resp, err := ce.llm.GenerateContent(ctx, content,
		llms.WithTemperature(ce.config.Temperature),
		llms.WithMaxTokens(ce.config.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}

	return firstChoice(resp)
}

// Model returns the configured model name.
func (ce *ChatEngine) Model() string {
	return ce.config.Model
}

func firstChoice(resp *llms.ContentResponse) (string, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

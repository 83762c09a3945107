package llm_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/xhad/courseplan/internal/models"
	"github.com/xhad/courseplan/pkg/llm"
	"github.com/xhad/courseplan/pkg/llm/llmtest"
)

func TestNewWithConfig(t *testing.T) {
	engine, err := llm.NewWithConfig(llm.ChatConfig{
		ProviderConfig: llm.ProviderConfig{Provider: llm.ProviderOllama, BaseURL: "http://localhost:1234"},
		Model:          "testmodel",
		Temperature:    0.5,
		MaxTokens:      1000,
	})
	require.NoError(t, err)
	assert.Equal(t, "testmodel", engine.Model())
}

func TestNewWithConfigRejectsBadSettings(t *testing.T) {
	_, err := llm.NewWithConfig(llm.ChatConfig{Temperature: 1.5})
	assert.Error(t, err)

	_, err = llm.NewWithConfig(llm.ChatConfig{MaxTokens: -1})
	assert.Error(t, err)

	_, err = llm.NewWithConfig(llm.ChatConfig{ProviderConfig: llm.ProviderConfig{Provider: "gemini"}})
	assert.ErrorContains(t, err, "unknown llm provider")
}

func TestGenerateSendsHistoryInOrder(t *testing.T) {
	model := llmtest.NewModel("  Start with the data model.  ")
	engine, err := llm.NewWithModel(llm.ChatConfig{Temperature: 0.5}, model)
	require.NoError(t, err)

	history := []models.Message{
		{Role: models.RoleUser, Content: "What is due?"},
		{Role: models.RoleAssistant, Content: "A REST service."},
	}

	answer, err := engine.Generate(context.Background(), "be helpful", history, "Where do I start?")
	require.NoError(t, err)
	assert.Equal(t, "Start with the data model.", answer)

	require.Len(t, model.Calls, 1)
	call := model.Calls[0]
	require.Len(t, call, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, call[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, call[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, call[2].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, call[3].Role)
	assert.Equal(t, llms.TextContent{Text: "Where do I start?"}, call[3].Parts[0])
}

func TestGenerateWrapsModelErrors(t *testing.T) {
	boom := errors.New("connection refused")
	engine, err := llm.NewWithModel(llm.ChatConfig{}, llmtest.Failing{Err: boom})
	require.NoError(t, err)

	_, err = engine.Generate(context.Background(), "", nil, "hi")
	assert.ErrorIs(t, err, boom)
}

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{})
	require.NoError(t, err)
	assert.NotNil(t, emb)

	_, err = llm.NewEmbedderWithConfig(llm.EmbedderConfig{ProviderConfig: llm.ProviderConfig{Provider: "nope"}})
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page1_img0.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xd8, 0xff}, 0o644))

	model := llmtest.NewModel("A UML class diagram.")
	d := llm.NewDescriber(llm.DescriberConfig{Interval: time.Millisecond}, model)

	got := d.Describe(context.Background(), path, "Software Engineering")
	assert.Equal(t, "A UML class diagram.", got)

	require.Len(t, model.Calls, 1)
	parts := model.Calls[0][0].Parts
	require.Len(t, parts, 2)
	text := parts[0].(llms.TextContent).Text
	assert.True(t, strings.HasSuffix(text, "\n\nDocument context: Software Engineering"))
	assert.Equal(t, "image/jpeg", parts[1].(llms.BinaryContent).MIMEType)
}

func TestDescribeMarkers(t *testing.T) {
	d := llm.NewDescriber(llm.DescriberConfig{Interval: time.Millisecond}, llmtest.NewModel("unused"))
	assert.Equal(t, llm.MarkerNotFound, d.Describe(context.Background(), "/does/not/exist.png", ""))

	path := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))

	failing := llm.NewDescriber(llm.DescriberConfig{Interval: time.Millisecond},
		llmtest.Failing{Err: errors.New(strings.Repeat("e", 300))})
	got := failing.Describe(context.Background(), path, "")
	assert.Equal(t, "[Failed to analyze image: "+strings.Repeat("e", 100)+"]", got)
}

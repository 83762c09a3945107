package llm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/xhad/courseplan/internal/logger"
	"golang.org/x/time/rate"
)

const visionPrompt = `Analyze this image from a coursework specification document.

Describe:
1. **Type**: What kind of diagram/figure is this? (flowchart, architecture, UML, graph, table, screenshot, etc.)
2. **Components**: What are the main elements, labels, or sections visible?
3. **Relationships**: How do the components connect or relate to each other?
4. **Purpose**: What concept or requirement does this image appear to explain?

Be concise but comprehensive. Focus on information that would help a student understand the coursework requirements.`

const (
	MarkerNotFound = "[Image file not found]"
	failedMarker   = "[Failed to analyze image: %s]"
)

var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

type DescriberConfig struct {
	ProviderConfig
	Model     string
	MaxTokens int
	// Interval is the minimum spacing between model calls.
	Interval time.Duration
}

// Describer captions diagrams with a multimodal model.
type Describer struct {
	config  DescriberConfig
	llm     llms.Model
	limiter *rate.Limiter
}

func NewDescriberWithConfig(config DescriberConfig) (*Describer, error) {
	if config.Model == "" {
		config.Model = "llava"
	}
	m, err := newModel(config.ProviderConfig, config.Model, false)
	if err != nil {
		return nil, err
	}
	return NewDescriber(config, m), nil
}

// NewDescriber wraps an existing multimodal model.
func NewDescriber(config DescriberConfig, m llms.Model) *Describer {
	if config.MaxTokens == 0 {
		config.MaxTokens = 1024
	}
	if config.Interval == 0 {
		config.Interval = 500 * time.Millisecond
	}
	return &Describer{
		config:  config,
		llm:     m,
		limiter: rate.NewLimiter(rate.Every(config.Interval), 1),
	}
}

// Describe implements types.ImageDescriber. Failures are reported inline
// so the caller can still index the image.
func (d *Describer) Describe(ctx context.Context, imagePath, contextHint string) string {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return MarkerNotFound
	}

	mime, ok := mimeTypes[strings.ToLower(filepath.Ext(imagePath))]
	if !ok {
		mime = "image/png"
	}

	prompt := visionPrompt
	if contextHint != "" {
		prompt += "\n\nDocument context: " + contextHint
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return failed(err)
	}

	resp, err := d.llm.GenerateContent(ctx, []llms.MessageContent{{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextContent{Text: prompt}, llms.BinaryPart(mime, data)},
	}}, llms.WithMaxTokens(d.config.MaxTokens))
	if err != nil {
		logger.Warnw("vision call failed", "path", imagePath, "error", err)
		return failed(err)
	}

	text, err := firstChoice(resp)
	if err != nil {
		return failed(err)
	}
	return text
}

func failed(err error) string {
	msg := err.Error()
	if r := []rune(msg); len(r) > 100 {
		msg = string(r[:100])
	}
	return fmt.Sprintf(failedMarker, msg)
}

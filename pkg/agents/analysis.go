package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xhad/courseplan/internal/logger"
	"github.com/xhad/courseplan/internal/models"
	"github.com/xhad/courseplan/internal/types"
	"github.com/xhad/courseplan/pkg/plan"
	"github.com/xhad/courseplan/pkg/repair"
)

const DefaultMaxChars = 50000

var errEmptyResponse = errors.New("empty response from model")

type AnalysisConfig struct {
	// MaxChars bounds the text sent to the model, in runes.
	MaxChars int
}

type AnalysisInput struct {
	Text       string
	Collection string
	DocumentID string
}

type AnalysisOutput struct {
	Plan        models.Plan
	Diagnostics []plan.Diagnostic
	SessionID   string
	DocumentID  string
	Collection  string
	// Legacy is set when the plan came from the fallback prompt.
	Legacy bool
}

// AnalysisAgent produces a Plan from document text.
type AnalysisAgent struct {
	config   AnalysisConfig
	model    types.ChatModel
	fallback types.ChatModel
}

// NewAnalysisAgent builds an agent. fallback serves the legacy prompt and
// defaults to model when nil.
func NewAnalysisAgent(config AnalysisConfig, model, fallback types.ChatModel) *AnalysisAgent {
	if config.MaxChars == 0 {
		config.MaxChars = DefaultMaxChars
	}
	if fallback == nil {
		fallback = model
	}
	return &AnalysisAgent{config: config, model: model, fallback: fallback}
}

// SessionID is the chat session tied to a document.
func SessionID(documentID string) string {
	return documentID + ":chat"
}

func (a *AnalysisAgent) Execute(ctx context.Context, in AnalysisInput) (*AnalysisOutput, error) {
	if in.Text == "" {
		return nil, invalid("document text is required")
	}

	out := &AnalysisOutput{
		SessionID:  SessionID(in.DocumentID),
		DocumentID: in.DocumentID,
		Collection: in.Collection,
	}

	text := truncateRunes(in.Text, a.config.MaxChars, truncatedNotice)
	raw, err := a.model.Generate(ctx, decomposerSystemPrompt, nil, fmt.Sprintf(analysisUserPrompt, text))
	if err == nil && strings.TrimSpace(raw) == "" {
		err = errEmptyResponse
	}
	if err != nil {
		logger.Warnw("analysis failed, using legacy decomposition", "document_id", in.DocumentID, "error", err)

		raw, err = a.legacyDecompose(ctx, in.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to decompose coursework: %w", err)
		}
		out.Legacy = true
	}

	res := plan.Map(repair.Decode(raw))
	out.Plan = res.Plan
	out.Diagnostics = res.Diagnostics

	if len(out.Plan.ExtractionWarnings) > 0 {
		logger.Infow("plan has extraction warnings", "document_id", in.DocumentID, "warnings", out.Plan.ExtractionWarnings)
	}
	return out, nil
}

func (a *AnalysisAgent) legacyDecompose(ctx context.Context, text string) (string, error) {
	text = truncateRunes(text, a.config.MaxChars, legacyTruncatedNotice)
	raw, err := a.fallback.Generate(ctx, decomposerSystemPrompt, nil, fmt.Sprintf(legacyUserPrompt, text))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(raw) == "" {
		return "", errEmptyResponse
	}
	return raw, nil
}

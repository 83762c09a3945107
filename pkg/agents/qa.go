package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/xhad/courseplan/internal/logger"
	"github.com/xhad/courseplan/internal/models"
	"github.com/xhad/courseplan/internal/types"
)

const sourcePreviewLength = 200

type QAConfig struct {
	TopK         int
	HistoryLimit int
}

type QAInput struct {
	Question   string
	SessionID  string
	Collection string
}

type QAOutput struct {
	Answer  string          `json:"answer"`
	Sources []models.Source `json:"sources"`
	Images  []string        `json:"images"`
}

// QAAgent answers follow-up questions from retrieved chunks and the
// session's history.
type QAAgent struct {
	config   QAConfig
	model    types.ChatModel
	store    types.VectorStore
	sessions types.SessionStore
}

func NewQAAgent(config QAConfig, model types.ChatModel, store types.VectorStore, sessions types.SessionStore) *QAAgent {
	if config.TopK == 0 {
		config.TopK = 6
	}
	if config.HistoryLimit == 0 {
		config.HistoryLimit = 10
	}
	return &QAAgent{config: config, model: model, store: store, sessions: sessions}
}

func (a *QAAgent) Execute(ctx context.Context, in QAInput) (*QAOutput, error) {
	if strings.TrimSpace(in.Question) == "" || in.SessionID == "" || in.Collection == "" {
		return nil, invalid("question, session_id, and collection_name are required")
	}

	history, err := a.sessions.History(ctx, in.SessionID, a.config.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	hits, err := a.store.Search(ctx, in.Collection, in.Question, a.config.TopK, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}

	answer, err := a.model.Generate(ctx, fmt.Sprintf(qaSystemPrompt, formatContext(hits)), history, in.Question)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	if err := a.sessions.AddExchange(ctx, in.SessionID, in.Question, answer); err != nil {
		return nil, fmt.Errorf("failed to save exchange: %w", err)
	}

	out := &QAOutput{
		Answer:  answer,
		Sources: make([]models.Source, 0, len(hits)),
		Images:  []string{},
	}
	seen := make(map[string]bool)
	for _, h := range hits {
		src := models.Source{
			ChunkID:    h.ChunkID,
			ChunkIndex: h.ChunkIndex,
			Preview:    preview(h.Text, sourcePreviewLength),
			SourceType: h.SourceType,
		}
		if h.SourceType == models.SourceImage && h.ImagePath != "" {
			src.ImagePath = h.ImagePath
			if !seen[h.ImagePath] {
				seen[h.ImagePath] = true
				out.Images = append(out.Images, h.ImagePath)
			}
		}
		out.Sources = append(out.Sources, src)
	}

	logger.Debugw("answered question", "session_id", in.SessionID, "sources", len(out.Sources))
	return out, nil
}

func formatContext(hits []models.Chunk) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.SourceType == models.SourceImage {
			page := "?"
			if h.PageNumber != nil {
				page = fmt.Sprint(*h.PageNumber)
			}
			parts = append(parts, fmt.Sprintf("[Image from Page %s - Chunk %d]\n%s", page, h.ChunkIndex, h.Text))
			continue
		}
		parts = append(parts, fmt.Sprintf("[Text Chunk %d]\n%s", h.ChunkIndex, h.Text))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

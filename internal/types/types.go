package types

import (
	"context"

	"github.com/xhad/courseplan/internal/models"
)

// Collaborator interfaces consumed by the agents.

type TextExtractor interface {
	// ExtractText returns page-tagged text ("[Page N]\n...") of a PDF.
	ExtractText(ctx context.Context, data []byte) (string, error)
}

type ImageExtractor interface {
	ExtractImages(ctx context.Context, data []byte, outputDir string, maxImages, minSize int) ([]models.ExtractedImage, error)
}

// ImageDescriber never fails; problems come back as an inline marker such
// as "[Failed to analyze image: ...]".
type ImageDescriber interface {
	Describe(ctx context.Context, imagePath, contextHint string) string
}

type ChatModel interface {
	Generate(ctx context.Context, system string, history []models.Message, prompt string) (string, error)
}

// SearchFilter is matched by metadata equality.
type SearchFilter map[string]interface{}

type VectorStore interface {
	Add(ctx context.Context, namespace string, chunks []models.Chunk) ([]string, error)
	Search(ctx context.Context, namespace, query string, k int, filter SearchFilter) ([]models.Chunk, error)
	DeleteByDocument(ctx context.Context, namespace, documentID string) error
	DeleteNamespace(ctx context.Context, namespace string) error
	Stats(ctx context.Context, namespace string) (int, error)
	Close()
}

type SessionStore interface {
	// History returns the most recent limit messages, oldest first. A limit
	// of zero or less returns the whole session.
	History(ctx context.Context, sessionID string, limit int) ([]models.Message, error)
	AddExchange(ctx context.Context, sessionID, userText, assistantText string) error
	Clear(ctx context.Context, sessionID string) error
	Count(ctx context.Context) (int, error)
}

type CourseContext struct {
	URL     string
	Title   string
	Summary string
}

type ContextFetcher interface {
	Fetch(ctx context.Context, url string) (*CourseContext, error)
}

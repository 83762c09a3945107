package agents

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xhad/courseplan/internal/logger"
	"github.com/xhad/courseplan/internal/models"
	"github.com/xhad/courseplan/internal/types"
	"github.com/xhad/courseplan/pkg/processor"
	"github.com/xhad/courseplan/pkg/store"
)

type IngestionInput struct {
	PDF      []byte
	UserID   string
	Metadata map[string]interface{}
}

type IngestionOutput struct {
	DocumentID     string
	Collection     string
	TextChunkCount int
	ImageCount     int
	FullText       string
	Images         []models.ImageInfo
}

// IngestionAgent turns a PDF into stored chunks.
type IngestionAgent struct {
	processor *processor.Processor
	store     types.VectorStore
	newID     func() string
}

func NewIngestionAgent(p *processor.Processor, s types.VectorStore) *IngestionAgent {
	return &IngestionAgent{
		processor: p,
		store:     s,
		newID:     uuid.NewString,
	}
}

// Execute stores every chunk of the document under the user's collection.
// Each call creates a new document, even for identical bytes.
func (a *IngestionAgent) Execute(ctx context.Context, in IngestionInput) (*IngestionOutput, error) {
	if len(in.PDF) == 0 {
		return nil, invalid("pdf content is required")
	}

	userID := in.UserID
	if userID == "" {
		userID = "anonymous"
	}

	documentID := a.newID()
	collection := store.CollectionName(userID)

	metadata := map[string]interface{}{"user_id": userID}
	for k, v := range in.Metadata {
		metadata[k] = v
	}

	res, err := a.processor.Process(ctx, in.PDF, documentID, metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}

	if _, err := a.store.Add(ctx, collection, res.TextChunks); err != nil {
		return nil, fmt.Errorf("failed to store text chunks: %w", err)
	}
	if len(res.ImageChunks) > 0 {
		if _, err := a.store.Add(ctx, collection, res.ImageChunks); err != nil {
			return nil, fmt.Errorf("failed to store image chunks: %w", err)
		}
	}

	logger.Infow("ingested document",
		"document_id", documentID,
		"collection", collection,
		"text_chunks", len(res.TextChunks),
		"images", len(res.ImageChunks))

	return &IngestionOutput{
		DocumentID:     documentID,
		Collection:     collection,
		TextChunkCount: len(res.TextChunks),
		ImageCount:     len(res.ImageChunks),
		FullText:       res.FullText,
		Images:         res.Images,
	}, nil
}

// CacheDir is the root under which every document's images are cached.
func (a *IngestionAgent) CacheDir() string {
	return a.processor.CacheDir()
}

// ImageDir is where the images of documentID are cached.
func (a *IngestionAgent) ImageDir(documentID string) string {
	return a.processor.ImageDir(documentID)
}

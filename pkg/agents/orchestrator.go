package agents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xhad/courseplan/internal/logger"
	"github.com/xhad/courseplan/internal/models"
	"github.com/xhad/courseplan/internal/types"
	"github.com/xhad/courseplan/pkg/store"
)

type DecompositionResult struct {
	Plan           models.Plan
	SessionID      string
	DocumentID     string
	Collection     string
	TextChunkCount int
	ImageCount     int
	Images         []models.ImageInfo
	Legacy         bool
}

type OrchestratorConfig struct {
	Ingestion *IngestionAgent
	Analysis  *AnalysisAgent
	QA        *QAAgent
	Store     types.VectorStore
	Sessions  types.SessionStore
	// Fetcher resolves a course_url in upload metadata; optional.
	Fetcher types.ContextFetcher
}

// Orchestrator is built once at startup and shared by all requests.
type Orchestrator struct {
	ingestion *IngestionAgent
	analysis  *AnalysisAgent
	qa        *QAAgent
	store     types.VectorStore
	sessions  types.SessionStore
	fetcher   types.ContextFetcher
}

func NewOrchestrator(config OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		ingestion: config.Ingestion,
		analysis:  config.Analysis,
		qa:        config.QA,
		store:     config.Store,
		sessions:  config.Sessions,
		fetcher:   config.Fetcher,
	}
}

// RunDecomposition ingests the PDF and then analyses its text. Chunks
// written before a failing analysis are left in place.
func (o *Orchestrator) RunDecomposition(ctx context.Context, pdf []byte, userID string, metadata map[string]interface{}) (*DecompositionResult, error) {
	metadata = o.withCourseContext(ctx, metadata)

	ing, err := o.ingestion.Execute(ctx, IngestionInput{PDF: pdf, UserID: userID, Metadata: metadata})
	if err != nil {
		return nil, err
	}

	ana, err := o.analysis.Execute(ctx, AnalysisInput{
		Text:       ing.FullText,
		Collection: ing.Collection,
		DocumentID: ing.DocumentID,
	})
	if err != nil {
		return nil, err
	}

	return &DecompositionResult{
		Plan:           ana.Plan,
		SessionID:      ana.SessionID,
		DocumentID:     ing.DocumentID,
		Collection:     ing.Collection,
		TextChunkCount: ing.TextChunkCount,
		ImageCount:     ing.ImageCount,
		Images:         ing.Images,
		Legacy:         ana.Legacy,
	}, nil
}

func (o *Orchestrator) withCourseContext(ctx context.Context, metadata map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}

	courseURL, _ := out["course_url"].(string)
	if courseURL == "" || o.fetcher == nil {
		return out
	}
	if name, _ := out["course_name"].(string); name != "" {
		return out
	}

	cc, err := o.fetcher.Fetch(ctx, courseURL)
	if err != nil {
		logger.Warnw("failed to fetch course page", "url", courseURL, "error", err)
		return out
	}
	if cc.Title != "" {
		out["course_name"] = cc.Title
	}
	return out
}

func (o *Orchestrator) RunChat(ctx context.Context, question, sessionID, collection string) (*QAOutput, error) {
	return o.qa.Execute(ctx, QAInput{
		Question:   question,
		SessionID:  sessionID,
		Collection: collection,
	})
}

func (o *Orchestrator) ClearSession(ctx context.Context, sessionID string) error {
	return o.sessions.Clear(ctx, sessionID)
}

func (o *Orchestrator) SessionCount(ctx context.Context) (int, error) {
	return o.sessions.Count(ctx)
}

// DeleteDocument removes the chunks, chat session and cached images of a
// document.
func (o *Orchestrator) DeleteDocument(ctx context.Context, userID, documentID string) error {
	if documentID == "" {
		return invalid("document_id is required")
	}
	dir, err := o.documentDir(documentID)
	if err != nil {
		return err
	}

	if err := o.store.DeleteByDocument(ctx, store.CollectionName(userID), documentID); err != nil {
		return err
	}
	if err := o.sessions.Clear(ctx, SessionID(documentID)); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove images: %w", err)
	}
	return nil
}

// documentDir resolves the image directory of documentID. The id must be a
// single path segment and the result must sit strictly inside the cache.
func (o *Orchestrator) documentDir(documentID string) (string, error) {
	if documentID == "." || documentID == ".." ||
		strings.ContainsAny(documentID, `/\`) ||
		documentID != filepath.Base(documentID) {
		return "", invalid("malformed document_id")
	}

	root, err := filepath.Abs(o.ingestion.CacheDir())
	if err != nil {
		return "", fmt.Errorf("failed to resolve image cache: %w", err)
	}
	dir, err := filepath.Abs(o.ingestion.ImageDir(documentID))
	if err != nil || !strings.HasPrefix(dir, root+string(filepath.Separator)) {
		return "", invalid("malformed document_id")
	}
	return dir, nil
}

// ImageDir is where the images of documentID are cached.
func (o *Orchestrator) ImageDir(documentID string) string {
	return o.ingestion.ImageDir(documentID)
}

package server

import (
	"github.com/xhad/courseplan/internal/models"
	"github.com/xhad/courseplan/pkg/agents"
)

// decomposeResponse is the plan with the ids needed for follow-up chat.
type decomposeResponse struct {
	models.Plan
	SessionID      string             `json:"session_id"`
	DocumentID     string             `json:"document_id"`
	TextChunkCount int                `json:"text_chunk_count"`
	ImageCount     int                `json:"image_count"`
	Images         []models.ImageInfo `json:"images"`
}

func newDecomposeResponse(res *agents.DecompositionResult) decomposeResponse {
	images := res.Images
	if images == nil {
		images = []models.ImageInfo{}
	}
	return decomposeResponse{
		Plan:           res.Plan,
		SessionID:      res.SessionID,
		DocumentID:     res.DocumentID,
		TextChunkCount: res.TextChunkCount,
		ImageCount:     res.ImageCount,
		Images:         images,
	}
}

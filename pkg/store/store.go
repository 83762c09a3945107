// Package store keeps embedded chunks in namespaced collections and serves
// similarity search over them.
package store

import (
	"strings"
	"unicode/utf8"

	"github.com/spf13/cast"
	"github.com/xhad/courseplan/internal/models"
)

const anonymousUser = "anonymous"

// CollectionName is the namespace holding every document of one user.
func CollectionName(userID string) string {
	if userID == "" {
		userID = anonymousUser
	}
	return "coursework_" + userID
}

// chunkFromMetadata rebuilds a chunk from what Add persisted.
func chunkFromMetadata(id, content string, md map[string]interface{}, score float32) models.Chunk {
	c := models.Chunk{
		ChunkID:       id,
		ChunkIndex:    cast.ToInt(md["chunk_index"]),
		DocumentID:    cast.ToString(md["document_id"]),
		ContentType:   models.ContentType(cast.ToString(md["content_type"])),
		Text:          content,
		SourceType:    cast.ToString(md["source_type"]),
		ImagePath:     cast.ToString(md["image_path"]),
		ImageFilename: cast.ToString(md["image_filename"]),
		ImageWidth:    cast.ToInt(md["image_width"]),
		ImageHeight:   cast.ToInt(md["image_height"]),
		TotalChunks:   cast.ToInt(md["total_chunks"]),
		Metadata:      md,
		Score:         score,
	}
	if v, ok := md["page_number"]; ok && v != nil {
		page := cast.ToInt(v)
		c.PageNumber = &page
	}
	return c
}

// matches reports whether md holds every filter entry.
func matches(md map[string]interface{}, filter map[string]interface{}) bool {
	for k, want := range filter {
		got, ok := md[k]
		if !ok || cast.ToString(got) != cast.ToString(want) {
			return false
		}
	}
	return true
}

// sanitizeUTF8 drops invalid bytes and NULs, which Postgres text rejects.
func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		s = string(v)
	}
	return strings.ReplaceAll(s, "\x00", "")
}

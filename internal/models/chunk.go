package models

type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
)

const (
	SourceCoursework = "coursework_pdf"
	SourceImage      = "image"
)

// Chunk is one embeddable unit of an ingested document. Chunks are never
// mutated after ingestion; they go away with their document.
type Chunk struct {
	ChunkID       string
	ChunkIndex    int
	DocumentID    string
	ContentType   ContentType
	PageNumber    *int
	Text          string
	SourceType    string
	ImagePath     string
	ImageFilename string
	ImageWidth    int
	ImageHeight   int
	TotalChunks   int
	Metadata      map[string]interface{}
	Score         float32
}

// StoreMetadata flattens the chunk identity into the metadata map persisted
// next to the embedding.
func (c Chunk) StoreMetadata() map[string]interface{} {
	md := make(map[string]interface{}, len(c.Metadata)+10)
	for k, v := range c.Metadata {
		md[k] = v
	}
	md["chunk_id"] = c.ChunkID
	md["chunk_index"] = c.ChunkIndex
	md["document_id"] = c.DocumentID
	md["content_type"] = string(c.ContentType)
	md["source_type"] = c.SourceType
	if c.TotalChunks > 0 {
		md["total_chunks"] = c.TotalChunks
	}
	if c.PageNumber != nil {
		md["page_number"] = *c.PageNumber
	}
	if c.ImagePath != "" {
		md["image_path"] = c.ImagePath
		md["image_filename"] = c.ImageFilename
		md["image_width"] = c.ImageWidth
		md["image_height"] = c.ImageHeight
	}
	return md
}

// ImageInfo is the summary of an extracted image returned to clients.
type ImageInfo struct {
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	PageNumber  int    `json:"page_number"`
	Description string `json:"description"`
}

// ExtractedImage is an image written to the image cache by a PDF extractor.
type ExtractedImage struct {
	Path       string
	Filename   string
	PageNumber int
	ImageIndex int
	Width      int
	Height     int
}

// Source references a retrieved chunk in a chat answer.
type Source struct {
	ChunkID    string `json:"chunk_id"`
	ChunkIndex int    `json:"chunk_index"`
	Preview    string `json:"preview"`
	SourceType string `json:"source_type"`
	ImagePath  string `json:"image_path,omitempty"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

package processor

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
	"github.com/xhad/courseplan/internal/logger"
	"github.com/xhad/courseplan/internal/models"
	"github.com/xhad/courseplan/internal/types"
)

// ErrNoText is returned when a PDF yields no extractable text.
var ErrNoText = errors.New("no text could be extracted from PDF")

const imagePreviewLength = 200

var pageMarker = regexp.MustCompile(`\[Page (\d+)\]`)

type ProcessorConfig struct {
	ChunkSize     int
	ChunkOverlap  int
	MaxImages     int
	MinImageSize  int
	ImageCacheDir string
}

type Processor struct {
	config    ProcessorConfig
	splitter  textsplitter.RecursiveCharacter
	text      types.TextExtractor
	images    types.ImageExtractor
	describer types.ImageDescriber
}

// Result holds everything produced from one PDF.
type Result struct {
	TextChunks  []models.Chunk
	ImageChunks []models.Chunk
	Images      []models.ImageInfo
	FullText    string
}

// NewWithConfig builds a processor. images and describer may be nil, in which
// case only text is processed.
func NewWithConfig(config ProcessorConfig, text types.TextExtractor, images types.ImageExtractor, describer types.ImageDescriber) *Processor {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 200
	}
	if config.MaxImages == 0 {
		config.MaxImages = 10
	}
	if config.MinImageSize == 0 {
		config.MinImageSize = 100
	}
	if config.ImageCacheDir == "" {
		config.ImageCacheDir = "image_cache"
	}

	return &Processor{
		config: config,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(config.ChunkSize),
			textsplitter.WithChunkOverlap(config.ChunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
			textsplitter.WithLenFunc(utf8.RuneCountInString),
		),
		text:      text,
		images:    images,
		describer: describer,
	}
}

func (p *Processor) CacheDir() string {
	return p.config.ImageCacheDir
}

// ImageDir is where images of a document are cached.
func (p *Processor) ImageDir(documentID string) string {
	return filepath.Join(p.config.ImageCacheDir, documentID)
}

// Process extracts, chunks and describes one PDF. metadata is copied onto
// every chunk.
func (p *Processor) Process(ctx context.Context, pdf []byte, documentID string, metadata map[string]interface{}) (*Result, error) {
	fullText, err := p.text.ExtractText(ctx, pdf)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(fullText) == "" {
		return nil, ErrNoText
	}

	textChunks, err := p.SplitText(fullText, documentID, metadata)
	if err != nil {
		return nil, err
	}

	res := &Result{
		TextChunks: textChunks,
		FullText:   fullText,
	}

	if err := p.processImages(ctx, pdf, documentID, metadata, res); err != nil {
		return nil, err
	}

	logger.Infow("processed document",
		"document_id", documentID,
		"text_chunks", len(res.TextChunks),
		"image_chunks", len(res.ImageChunks))

	return res, nil
}

// SplitText cuts page-tagged text into overlapping chunks.
func (p *Processor) SplitText(text, documentID string, metadata map[string]interface{}) ([]models.Chunk, error) {
	pieces, err := p.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	pages := pageOffsets(text)
	chunks := make([]models.Chunk, 0, len(pieces))
	cursor := 0

	for i, piece := range pieces {
		page := 1
		if at := strings.Index(text[cursor:], piece); at >= 0 {
			start := cursor + at
			page = pageAt(pages, start)
			cursor = start + 1
		}

		chunks = append(chunks, models.Chunk{
			ChunkID:     chunkID(fmt.Sprintf("%s:%d", documentID, i)),
			ChunkIndex:  i,
			DocumentID:  documentID,
			ContentType: models.ContentText,
			PageNumber:  &page,
			Text:        piece,
			SourceType:  models.SourceCoursework,
			TotalChunks: len(pieces),
			Metadata:    copyMetadata(metadata),
		})
	}

	return chunks, nil
}

func (p *Processor) processImages(ctx context.Context, pdf []byte, documentID string, metadata map[string]interface{}, res *Result) error {
	if p.images == nil || p.describer == nil {
		return nil
	}

	extracted, err := p.images.ExtractImages(ctx, pdf, p.ImageDir(documentID), p.config.MaxImages, p.config.MinImageSize)
	if err != nil {
		logger.Warnw("image extraction failed", "document_id", documentID, "error", err)
		return nil
	}

	hint, _ := metadata["course_name"].(string)

	for _, img := range extracted {
		if err := ctx.Err(); err != nil {
			return err
		}

		description := strings.TrimSpace(p.describer.Describe(ctx, img.Path, hint))
		if description == "" {
			logger.Warnw("skipping image without description", "path", img.Path)
			continue
		}

		page := img.PageNumber
		res.ImageChunks = append(res.ImageChunks, models.Chunk{
			ChunkID:       chunkID(fmt.Sprintf("%s:img:%d:%d", documentID, img.PageNumber, img.ImageIndex)),
			ChunkIndex:    len(res.TextChunks) + len(res.ImageChunks),
			DocumentID:    documentID,
			ContentType:   models.ContentImage,
			PageNumber:    &page,
			Text:          fmt.Sprintf("[Image from Page %d]\n%s", img.PageNumber, description),
			SourceType:    models.SourceImage,
			ImagePath:     img.Path,
			ImageFilename: img.Filename,
			ImageWidth:    img.Width,
			ImageHeight:   img.Height,
			Metadata:      copyMetadata(metadata),
		})
		res.Images = append(res.Images, models.ImageInfo{
			Path:        img.Path,
			Filename:    img.Filename,
			PageNumber:  img.PageNumber,
			Description: preview(description, imagePreviewLength),
		})
	}

	return nil
}

func chunkID(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])[:12]
}

type pageOffset struct {
	page   int
	offset int
}

func pageOffsets(text string) []pageOffset {
	var out []pageOffset
	for _, m := range pageMarker.FindAllStringSubmatchIndex(text, -1) {
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		out = append(out, pageOffset{page: n, offset: m[0]})
	}
	return out
}

// pageAt returns the page of the last marker at or before offset.
func pageAt(pages []pageOffset, offset int) int {
	page := 1
	for _, p := range pages {
		if p.offset > offset {
			break
		}
		page = p.page
	}
	return page
}

func copyMetadata(md map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

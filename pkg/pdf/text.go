// Package pdf extracts page-tagged text and embedded raster images from PDF
// documents.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

// ErrParse marks a document that could not be read as a PDF.
var ErrParse = errors.New("failed to parse PDF")

type ExtractorConfig struct {
	Password string
}

type Extractor struct {
	config ExtractorConfig
}

func NewWithConfig(config ExtractorConfig) *Extractor {
	return &Extractor{config: config}
}

func New() *Extractor {
	return NewWithConfig(ExtractorConfig{})
}

// ExtractText returns the text of every non-empty page as "[Page N]\n..."
// blocks separated by blank lines.
func (e *Extractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	docs, err := e.load(ctx, data)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(docs))
	for i, doc := range docs {
		text := strings.TrimSpace(doc.PageContent)
		if text == "" {
			continue
		}
		page := i + 1
		if n, ok := doc.Metadata["page"].(int); ok {
			page = n
		}
		parts = append(parts, fmt.Sprintf("[Page %d]\n%s", page, text))
	}

	return strings.Join(parts, "\n\n"), nil
}

func (e *Extractor) load(ctx context.Context, data []byte) (docs []schema.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			docs, err = nil, fmt.Errorf("%w: %v", ErrParse, r)
		}
	}()

	var opts []documentloaders.PDFOptions
	if e.config.Password != "" {
		opts = append(opts, documentloaders.WithPassword(e.config.Password))
	}

	loader := documentloaders.NewPDF(bytes.NewReader(data), int64(len(data)), opts...)
	docs, err = loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return docs, nil
}

func (e *Extractor) open(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("%w: %v", ErrParse, rec)
		}
	}()

	if e.config.Password != "" {
		tried := false
		r, err = pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), func() string {
			if tried {
				return ""
			}
			tried = true
			return e.config.Password
		})
	} else {
		r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return r, nil
}

package pdf

import (
	"context"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/courseplan/pkg/pdf/pdftest"
)

func samplePDF() []byte {
	return pdftest.Build([]pdftest.Page{
		{Lines: []string{"Informatics Coursework 1", "Deadline: 14 Nov 2024, Friday noon"}},
		{
			Lines:  []string{"Architecture overview"},
			Images: []pdftest.Image{{Width: 400, Height: 300}, {Width: 40, Height: 40}},
		},
		{Lines: []string{"Marking: implementation 60%"}},
	})
}

func TestExtractText(t *testing.T) {
	text, err := New().ExtractText(context.Background(), samplePDF())
	require.NoError(t, err)

	assert.Contains(t, text, "[Page 1]\n")
	assert.Contains(t, text, "Deadline: 14 Nov 2024, Friday noon")
	assert.Contains(t, text, "[Page 2]\nArchitecture overview")
	assert.Contains(t, text, "[Page 3]\n")
}

func TestExtractTextRejectsGarbage(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("not a pdf at all"), []byte("%PDF-1.4\ntruncated")} {
		_, err := New().ExtractText(context.Background(), data)
		assert.ErrorIs(t, err, ErrParse)
	}
}

func TestExtractImagesFiltersSmallImages(t *testing.T) {
	dir := t.TempDir()

	images, err := New().ExtractImages(context.Background(), samplePDF(), dir, 10, 100)
	require.NoError(t, err)
	require.Len(t, images, 1)

	img := images[0]
	assert.Equal(t, 2, img.PageNumber)
	assert.Equal(t, 0, img.ImageIndex)
	assert.Equal(t, 400, img.Width)
	assert.Equal(t, 300, img.Height)
	assert.Equal(t, "page2_img0.png", img.Filename)
	assert.Equal(t, filepath.Join(dir, "page2_img0.png"), img.Path)

	f, err := os.Open(img.Path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestExtractImagesJPEGAndCap(t *testing.T) {
	data := pdftest.Build([]pdftest.Page{
		{Lines: []string{"one"}, Images: []pdftest.Image{{Width: 120, Height: 200, JPEG: true}}},
		{Lines: []string{"two"}, Images: []pdftest.Image{{Width: 150, Height: 150}, {Width: 160, Height: 160}}},
	})
	dir := t.TempDir()

	images, err := New().ExtractImages(context.Background(), data, dir, 2, 100)
	require.NoError(t, err)
	require.Len(t, images, 2)

	assert.Equal(t, "page1_img0.jpg", images[0].Filename)
	f, err := os.Open(images[0].Path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Width)

	assert.Equal(t, "page2_img0.png", images[1].Filename)
}

func TestExtractImagesRejectsGarbage(t *testing.T) {
	_, err := New().ExtractImages(context.Background(), []byte("nope"), t.TempDir(), 10, 100)
	assert.ErrorIs(t, err, ErrParse)
}

func TestScanJPEGsIgnoresNoise(t *testing.T) {
	assert.Empty(t, scanJPEGs([]byte("\xff\xd8\xff garbage endstream")))
	assert.Empty(t, scanJPEGs(nil))
}

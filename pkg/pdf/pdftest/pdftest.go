// Package pdftest builds small, valid PDF files for tests.
package pdftest

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
)

type Image struct {
	Width  int
	Height int
	// JPEG stores the image with DCTDecode instead of FlateDecode RGB.
	JPEG bool
}

type Page struct {
	Lines  []string
	Images []Image
}

type builder struct {
	buf     bytes.Buffer
	offsets []int
}

func (b *builder) object(body string) int {
	b.offsets = append(b.offsets, b.buf.Len())
	id := len(b.offsets)
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", id, body)
	return id
}

func (b *builder) stream(dict string, data []byte) int {
	b.offsets = append(b.offsets, b.buf.Len())
	id := len(b.offsets)
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n", id, dict, len(data))
	b.buf.Write(data)
	b.buf.WriteString("\nendstream\nendobj\n")
	return id
}

// reserve allocates an object id whose body is written later with fill.
func (b *builder) reserve() int {
	b.offsets = append(b.offsets, -1)
	return len(b.offsets)
}

func (b *builder) fill(id int, body string) {
	b.offsets[id-1] = b.buf.Len()
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", id, body)
}

// Build returns a PDF with one page per entry. Text uses Helvetica with
// WinAnsiEncoding, so it must be plain ASCII.
func Build(pages []Page) []byte {
	b := &builder{}
	b.buf.WriteString("%PDF-1.4\n")

	catalog := b.reserve()
	pagesID := b.reserve()
	font := b.object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var kids []string
	for _, p := range pages {
		var xobjects []string
		var content strings.Builder
		content.WriteString("BT /F1 12 Tf 14 TL 72 720 Td\n")
		for _, line := range p.Lines {
			fmt.Fprintf(&content, "(%s) Tj T*\n", escape(line))
		}
		content.WriteString("ET\n")

		for i, img := range p.Images {
			id := imageObject(b, img)
			name := fmt.Sprintf("Im%d", i)
			xobjects = append(xobjects, fmt.Sprintf("/%s %d 0 R", name, id))
			fmt.Fprintf(&content, "q %d 0 0 %d 72 72 cm /%s Do Q\n", img.Width/4, img.Height/4, name)
		}

		contentID := b.stream("", []byte(content.String()))
		resources := fmt.Sprintf("/Font << /F1 %d 0 R >>", font)
		if len(xobjects) > 0 {
			resources += fmt.Sprintf(" /XObject << %s >>", strings.Join(xobjects, " "))
		}
		pageID := b.object(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << %s >> /Contents %d 0 R >>",
			pagesID, resources, contentID))
		kids = append(kids, fmt.Sprintf("%d 0 R", pageID))
	}

	b.fill(pagesID, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids)))
	b.fill(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesID))

	xref := b.buf.Len()
	fmt.Fprintf(&b.buf, "xref\n0 %d\n0000000000 65535 f \n", len(b.offsets)+1)
	for _, off := range b.offsets {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(b.offsets)+1, catalog, xref)

	return b.buf.Bytes()
}

func imageObject(b *builder, img Image) int {
	if img.JPEG {
		var jb bytes.Buffer
		_ = jpeg.Encode(&jb, solid(img.Width, img.Height), &jpeg.Options{Quality: 80})
		return b.stream(fmt.Sprintf(
			"/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode",
			img.Width, img.Height), jb.Bytes())
	}

	raw := make([]byte, 0, img.Width*img.Height*3)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			raw = append(raw, byte(x), byte(y), 0x80)
		}
	}
	var zb bytes.Buffer
	zw := zlib.NewWriter(&zb)
	_, _ = zw.Write(raw)
	_ = zw.Close()

	return b.stream(fmt.Sprintf(
		"/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /FlateDecode",
		img.Width, img.Height), zb.Bytes())
}

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 0x20, G: 0x60, B: 0xa0, A: 0xff})
		}
	}
	return img
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

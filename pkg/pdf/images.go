package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/ledongthuc/pdf"
	"github.com/xhad/courseplan/internal/logger"
	"github.com/xhad/courseplan/internal/models"
)

type xobject struct {
	name   string
	value  pdf.Value
	width  int
	height int
	filter string
}

// rawJPEG is a DCT stream found by scanning the file bytes. The PDF reader
// cannot hand those streams back undecoded, so they are matched to image
// XObjects by their dimensions.
type rawJPEG struct {
	data   []byte
	width  int
	height int
	used   bool
}

// ExtractImages writes embedded images of at least minSize pixels in both
// dimensions to outputDir as page{N}_img{index}.{png|jpg}, stopping after
// maxImages. Images that cannot be decoded are skipped.
func (e *Extractor) ExtractImages(ctx context.Context, data []byte, outputDir string, maxImages, minSize int) ([]models.ExtractedImage, error) {
	r, err := e.open(data)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	jpegs := scanJPEGs(data)
	var out []models.ExtractedImage

	for page := 1; page <= r.NumPage(); page++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		for idx, xo := range pageImages(r, page) {
			if maxImages > 0 && len(out) >= maxImages {
				return out, nil
			}
			if xo.width < minSize || xo.height < minSize {
				continue
			}

			encoded, ext, err := decodeXObject(xo, jpegs)
			if err != nil {
				logger.Warnw("skipping image", "page", page, "name", xo.name, "error", err)
				continue
			}

			filename := fmt.Sprintf("page%d_img%d.%s", page, idx, ext)
			path := filepath.Join(outputDir, filename)
			if err := os.WriteFile(path, encoded, 0o644); err != nil {
				logger.Warnw("failed to write image", "path", path, "error", err)
				continue
			}

			out = append(out, models.ExtractedImage{
				Path:       path,
				Filename:   filename,
				PageNumber: page,
				ImageIndex: idx,
				Width:      xo.width,
				Height:     xo.height,
			})
		}
	}

	return out, nil
}

func pageImages(r *pdf.Reader, page int) (images []xobject) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Warnw("failed to read page resources", "page", page, "error", rec)
		}
	}()

	res := r.Page(page).Resources().Key("XObject")
	keys := res.Keys()
	sort.Strings(keys)

	for _, k := range keys {
		v := res.Key(k)
		if v.Key("Subtype").Name() != "Image" {
			continue
		}
		images = append(images, xobject{
			name:   k,
			value:  v,
			width:  int(v.Key("Width").Int64()),
			height: int(v.Key("Height").Int64()),
			filter: filterName(v.Key("Filter")),
		})
	}
	return images
}

func filterName(v pdf.Value) string {
	switch v.Kind() {
	case pdf.Name:
		return v.Name()
	case pdf.Array:
		if v.Len() > 0 {
			return v.Index(v.Len() - 1).Name()
		}
	}
	return ""
}

func decodeXObject(xo xobject, jpegs []*rawJPEG) (data []byte, ext string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			data, ext, err = nil, "", fmt.Errorf("decode panic: %v", rec)
		}
	}()

	switch xo.filter {
	case "DCTDecode":
		for _, j := range jpegs {
			if !j.used && j.width == xo.width && j.height == xo.height {
				j.used = true
				return j.data, "jpg", nil
			}
		}
		return nil, "", fmt.Errorf("no JPEG stream matches %dx%d", xo.width, xo.height)
	case "FlateDecode", "":
		img, err := rasterFrom(xo)
		if err != nil {
			return nil, "", err
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "png", nil
	default:
		return nil, "", fmt.Errorf("unsupported filter %s", xo.filter)
	}
}

func rasterFrom(xo xobject) (image.Image, error) {
	if bpc := xo.value.Key("BitsPerComponent").Int64(); bpc != 8 {
		return nil, fmt.Errorf("unsupported bits per component %d", bpc)
	}

	components := colorComponents(xo.value.Key("ColorSpace"))
	if components == 0 {
		return nil, fmt.Errorf("unsupported color space %v", xo.value.Key("ColorSpace"))
	}

	rc := xo.value.Reader()
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	need := xo.width * xo.height * components
	if len(raw) < need {
		return nil, fmt.Errorf("short image data: %d of %d bytes", len(raw), need)
	}

	rect := image.Rect(0, 0, xo.width, xo.height)
	if components == 1 {
		img := image.NewGray(rect)
		copy(img.Pix, raw[:need])
		return img, nil
	}

	img := image.NewRGBA(rect)
	for i := 0; i < xo.width*xo.height; i++ {
		p := raw[i*3:]
		img.Set(i%xo.width, i/xo.width, color.RGBA{R: p[0], G: p[1], B: p[2], A: 0xff})
	}
	return img, nil
}

func colorComponents(cs pdf.Value) int {
	switch cs.Kind() {
	case pdf.Name:
		switch cs.Name() {
		case "DeviceRGB", "CalRGB":
			return 3
		case "DeviceGray", "CalGray":
			return 1
		}
	case pdf.Array:
		if cs.Len() > 1 && cs.Index(0).Name() == "ICCBased" {
			switch cs.Index(1).Key("N").Int64() {
			case 3:
				return 3
			case 1:
				return 1
			}
		}
	}
	return 0
}

var (
	soi       = []byte{0xFF, 0xD8, 0xFF}
	endstream = []byte("endstream")
)

func scanJPEGs(data []byte) []*rawJPEG {
	var found []*rawJPEG
	for i := 0; i < len(data); {
		start := bytes.Index(data[i:], soi)
		if start < 0 {
			break
		}
		start += i

		end := bytes.Index(data[start:], endstream)
		if end < 0 {
			break
		}
		seg := bytes.TrimRight(data[start:start+end], "\r\n")

		if cfg, err := jpeg.DecodeConfig(bytes.NewReader(seg)); err == nil {
			found = append(found, &rawJPEG{data: seg, width: cfg.Width, height: cfg.Height})
		}
		i = start + end + len(endstream)
	}
	return found
}

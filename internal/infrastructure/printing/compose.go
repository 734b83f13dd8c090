package printing

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder for DecodeConfig
	_ "image/png"  // register decoder for DecodeConfig

	"github.com/campus/docgen/internal/domain/document"
	"github.com/jung-kurt/gofpdf"
)

const snapshotImageName = "snapshot"

// Placement is where a bitmap lands on the page, in millimeters
type Placement struct {
	X, Y, Width, Height float64
}

// FitWithin returns the largest size with the aspect ratio of w x h that
// fits inside boxW x boxH. The bitmap may be scaled up or down.
func FitWithin(w, h, boxW, boxH float64) (float64, float64) {
	if w <= 0 || h <= 0 || boxW <= 0 || boxH <= 0 {
		return 0, 0
	}
	scale := boxW / w
	if s := boxH / h; s < scale {
		scale = s
	}
	return w * scale, h * scale
}

// Place fits a pxW x pxH bitmap inside the printable area of the page and
// centers it horizontally and vertically.
func Place(pxW, pxH int, paper document.PaperSize, margins document.Margins) Placement {
	pageW, pageH := paper.Dimensions()
	boxW := pageW - margins.Left - margins.Right
	boxH := pageH - margins.Top - margins.Bottom

	w, h := FitWithin(float64(pxW), float64(pxH), boxW, boxH)
	return Placement{
		X:      margins.Left + (boxW-w)/2,
		Y:      margins.Top + (boxH-h)/2,
		Width:  w,
		Height: h,
	}
}

// ComposePDF places one PNG or JPEG bitmap on a single portrait page
func ComposePDF(img []byte, title string, paper document.PaperSize, margins document.Margins) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, NewRenderError(ErrCodeComposeFailed, "snapshot is not a decodable image", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, NewRenderError(ErrCodeComposeFailed, "snapshot is empty", nil)
	}
	if !paper.IsValid() {
		paper = document.PaperSizeA4
	}

	pdf := gofpdf.New("P", "mm", string(paper), "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("campus-docgen", true)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.AddPage()

	imgType, ok := imageTypes[format]
	if !ok {
		return nil, NewRenderError(ErrCodeComposeFailed, fmt.Sprintf("unsupported snapshot format %q", format), nil)
	}
	opts := gofpdf.ImageOptions{ImageType: imgType}
	pdf.RegisterImageOptionsReader(snapshotImageName, opts, bytes.NewReader(img))

	p := Place(cfg.Width, cfg.Height, paper, margins)
	pdf.ImageOptions(snapshotImageName, p.X, p.Y, p.Width, p.Height, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, NewRenderError(ErrCodeComposeFailed, "failed to write PDF", err)
	}
	return buf.Bytes(), nil
}

// gofpdf image types by image.DecodeConfig format name
var imageTypes = map[string]string{
	"jpeg": "JPG",
	"png":  "PNG",
}

// Package imaging normalizes uploaded photos into the canonical letterboxed
// shape the generation provider expects: a fixed 720x1280 portrait canvas with
// the source image fitted and centered over an opaque black background.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	img "github.com/disintegration/imaging"

	"server/internal/domain"
)

const (
	// CanvasWidth and CanvasHeight define the fixed 9:16 normalization target.
	// This is independent of the aspect ratio later requested for generation;
	// it only gives the provider consistently shaped, non-distorted inputs.
	CanvasWidth  = 720
	CanvasHeight = 1280

	// jpegQuality is applied when re-encoding JPEG sources.
	jpegQuality = 95
)

// Normalizer letterboxes raw uploads onto the fixed canvas.
type Normalizer struct{}

// NewNormalizer returns a ready Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize decodes src, letterboxes it onto the canvas without cropping or
// stretching, and re-encodes to the source media type. Payload and preview of
// the returned artifact derive from the single encode pass.
func (n *Normalizer) Normalize(src []byte, mediaType string) (*domain.Artifact, error) {
	decoded, err := img.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodeFailed, err)
	}

	canvas := Letterbox(decoded)
	format := formatFor(mediaType)

	var buf bytes.Buffer
	if err := img.Encode(&buf, canvas, format, img.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}

	return domain.NewArtifact(buf.Bytes(), mediaTypeFor(format), CanvasWidth, CanvasHeight), nil
}

// Letterbox scales src to fit entirely within the canvas while preserving its
// native aspect ratio, then centers it over an opaque black fill. Margins are
// symmetric on the constrained axis.
func Letterbox(src image.Image) *image.NRGBA {
	canvas := img.New(CanvasWidth, CanvasHeight, color.NRGBA{A: 0xff})
	fitted := img.Fit(src, CanvasWidth, CanvasHeight, img.Lanczos)
	return img.PasteCenter(canvas, fitted)
}

// FitSize reports the scaled draw size for a source of the given dimensions,
// exposed so callers can reason about letterbox margins without rendering.
func FitSize(srcWidth, srcHeight int) (int, int) {
	if srcWidth <= 0 || srcHeight <= 0 {
		return 0, 0
	}
	srcAspect := float64(srcWidth) / float64(srcHeight)
	canvasAspect := float64(CanvasWidth) / float64(CanvasHeight)
	if srcAspect > canvasAspect {
		// Relatively wider than the canvas: constrain by width.
		h := int(float64(CanvasWidth)/srcAspect + 0.5)
		return CanvasWidth, h
	}
	w := int(float64(CanvasHeight)*srcAspect + 0.5)
	return w, CanvasHeight
}

func formatFor(mediaType string) img.Format {
	switch mediaType {
	case "image/jpeg", "image/jpg":
		return img.JPEG
	default:
		// Unknown source types that still decoded above are re-encoded as PNG
		// so the output always has a well-defined container.
		return img.PNG
	}
}

func mediaTypeFor(format img.Format) string {
	if format == img.JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

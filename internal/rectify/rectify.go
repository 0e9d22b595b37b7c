// Package rectify maps a detected document quadrilateral onto an axis-aligned
// rectangle using a four-point projective transform with bilinear resampling.
package rectify

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/snapscan/snapscan/internal/utils"
)

// ErrDegenerateQuad is returned when the measured destination rectangle would
// have a non-positive dimension. Callers fall back to the un-rectified image.
var ErrDegenerateQuad = errors.New("degenerate quadrilateral")

// Rectifier performs perspective correction.
type Rectifier struct{}

// New creates a Rectifier.
func New() *Rectifier { return &Rectifier{} }

// Rectify warps the quadrilateral region of img into a new rectangular buffer.
// The destination width is the larger of the measured top and bottom edge
// lengths, the height the larger of the left and right edges, so no content
// is cropped by an optimistic rectangle. Samples falling outside the source
// are filled with white. The input buffer is never modified.
func (r *Rectifier) Rectify(img image.Image, quad []utils.Point) (image.Image, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	if len(quad) != 4 {
		return nil, fmt.Errorf("expected 4 corner points, got %d", len(quad))
	}

	src := utils.OrderQuad(quad)
	tl, tr, br, bl := src[0], src[1], src[2], src[3]

	widthTop := utils.Distance(tl, tr)
	widthBottom := utils.Distance(bl, br)
	heightLeft := utils.Distance(tl, bl)
	heightRight := utils.Distance(tr, br)

	dstW := int(math.Round(math.Max(widthTop, widthBottom)))
	dstH := int(math.Round(math.Max(heightLeft, heightRight)))
	if dstW < 1 || dstH < 1 {
		return nil, ErrDegenerateQuad
	}

	// Homography from destination rectangle corners to the source quad, so
	// each output pixel is sampled under the inverse mapping.
	dst := [4]utils.Point{
		{X: 0, Y: 0},
		{X: float64(dstW), Y: 0},
		{X: float64(dstW), Y: float64(dstH)},
		{X: 0, Y: float64(dstH)},
	}
	h, ok := computeHomography(dst, src)
	if !ok {
		return nil, ErrDegenerateQuad
	}

	slog.Debug("rectifying quadrilateral", "dst_width", dstW, "dst_height", dstH)
	return warp(img, h, dstW, dstH), nil
}

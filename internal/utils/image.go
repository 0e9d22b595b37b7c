package utils

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// ImageConstraints defines the dimensional constraints for processing input.
type ImageConstraints struct {
	MinWidth  int
	MinHeight int
}

// DefaultImageConstraints returns the constraints below which the boundary
// detector declines to run.
func DefaultImageConstraints() ImageConstraints {
	return ImageConstraints{
		MinWidth:  32,
		MinHeight: 32,
	}
}

// ValidateInput checks that an image is a usable pixel buffer: non-nil with
// positive dimensions.
func ValidateInput(img image.Image) error {
	if img == nil {
		return &ImageProcessingError{Operation: "validate", Err: errors.New("input image is nil")}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return &ImageProcessingError{
			Operation: "validate",
			Err:       fmt.Errorf("empty image dimensions: %dx%d", b.Dx(), b.Dy()),
		}
	}
	return nil
}

// MeetsConstraints reports whether the image satisfies the minimum dimensions.
func MeetsConstraints(img image.Image, c ImageConstraints) bool {
	if img == nil {
		return false
	}
	b := img.Bounds()
	return b.Dx() >= c.MinWidth && b.Dy() >= c.MinHeight
}

// DownscaleToHeight resizes the image so its height does not exceed maxHeight,
// preserving aspect ratio with Lanczos resampling. Returns the (possibly
// original) image and the applied scale factor (<= 1).
func DownscaleToHeight(img image.Image, maxHeight int) (image.Image, float64) {
	b := img.Bounds()
	h := b.Dy()
	if maxHeight <= 0 || h <= maxHeight {
		return img, 1.0
	}
	scale := float64(maxHeight) / float64(h)
	w := int(float64(b.Dx()) * scale)
	if w < 1 {
		w = 1
	}
	return imaging.Resize(img, w, maxHeight, imaging.Lanczos), scale
}

// GrayPlane extracts a row-major 8-bit luma plane from an image using the
// Rec. 601 weights. The caller owns the returned slice.
func GrayPlane(img image.Image, dst []uint8) []uint8 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if len(dst) != w*h {
		dst = make([]uint8, w*h)
	}
	if g, ok := img.(*image.Gray); ok {
		for y := range h {
			copy(dst[y*w:(y+1)*w], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):g.PixOffset(b.Min.X, b.Min.Y+y)+w])
		}
		return dst
	}
	for y := range h {
		row := y * w
		for x := range w {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// 0.299 R + 0.587 G + 0.114 B on 8-bit samples
			luma := (299*(r>>8) + 587*(g>>8) + 114*(bl>>8) + 500) / 1000
			dst[row+x] = uint8(luma)
		}
	}
	return dst
}

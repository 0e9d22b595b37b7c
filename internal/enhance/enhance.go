package enhance

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/snapscan/snapscan/internal/utils"
)

// Config holds the tuning parameters for the enhancement stages. The zero
// value is not usable; call DefaultConfig or New which fills in defaults.
type Config struct {
	// ClipLimit bounds per-tile histogram amplification in scan mode.
	ClipLimit float64
	// HighContrastClip is the (larger) clip limit used by high-contrast mode.
	HighContrastClip float64
	// TileGrid is the number of equalization tiles per image dimension.
	TileGrid int
	// BilateralDiameter is the pixel neighborhood diameter of the
	// edge-preserving smoothing pass.
	BilateralDiameter int
	// BilateralSigmaSpace and BilateralSigmaColor control the spatial and
	// intensity falloff of the bilateral weights.
	BilateralSigmaSpace float64
	BilateralSigmaColor float64
	// ThresholdBlock is the side length of the Gaussian-weighted
	// neighborhood used for adaptive binarization. Must be odd.
	ThresholdBlock int
	// ThresholdC is subtracted from the neighborhood mean before comparing.
	ThresholdC float64
}

// DefaultConfig returns the tuning used by the stock pipeline.
func DefaultConfig() Config {
	return Config{
		ClipLimit:           3.0,
		HighContrastClip:    6.0,
		TileGrid:            8,
		BilateralDiameter:   9,
		BilateralSigmaSpace: 75,
		BilateralSigmaColor: 75,
		ThresholdBlock:      11,
		ThresholdC:          2,
	}
}

// Enhancer renders a rectified page into one of the output modes.
type Enhancer struct {
	cfg Config
}

// New creates an Enhancer, filling unset config fields with defaults. An even
// threshold block size is bumped to the next odd value.
func New(cfg Config) *Enhancer {
	def := DefaultConfig()
	if cfg.ClipLimit <= 0 {
		cfg.ClipLimit = def.ClipLimit
	}
	if cfg.HighContrastClip <= 0 {
		cfg.HighContrastClip = def.HighContrastClip
	}
	if cfg.TileGrid <= 0 {
		cfg.TileGrid = def.TileGrid
	}
	if cfg.BilateralDiameter <= 0 {
		cfg.BilateralDiameter = def.BilateralDiameter
	}
	if cfg.BilateralSigmaSpace <= 0 {
		cfg.BilateralSigmaSpace = def.BilateralSigmaSpace
	}
	if cfg.BilateralSigmaColor <= 0 {
		cfg.BilateralSigmaColor = def.BilateralSigmaColor
	}
	if cfg.ThresholdBlock <= 0 {
		cfg.ThresholdBlock = def.ThresholdBlock
	}
	if cfg.ThresholdC <= 0 {
		cfg.ThresholdC = def.ThresholdC
	}
	if cfg.ThresholdBlock%2 == 0 {
		cfg.ThresholdBlock++
	}
	return &Enhancer{cfg: cfg}
}

// Apply renders img in the requested mode. The input is never modified; the
// returned image is always a fresh buffer. An invalid mode is a fatal error.
func (e *Enhancer) Apply(img image.Image, mode Mode) (image.Image, error) {
	if img == nil {
		return nil, &utils.ImageProcessingError{Operation: "enhance", Err: fmt.Errorf("nil input image")}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &utils.ImageProcessingError{Operation: "enhance", Err: fmt.Errorf("empty input image %dx%d", b.Dx(), b.Dy())}
	}

	switch mode {
	case ModeOriginal:
		return imaging.Clone(img), nil
	case ModeGrayscale:
		return grayImage(img), nil
	case ModeScan:
		return e.scan(img), nil
	case ModeHighContrast:
		return e.highContrast(img), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMode, mode)
	}
}

// scan builds the binarized document rendering: local equalization to even
// out lighting, edge-preserving smoothing to knock down sensor noise, then
// adaptive thresholding so text survives uneven illumination.
func (e *Enhancer) scan(img image.Image) *image.Gray {
	g := grayImage(img)
	w, h := g.Rect.Dx(), g.Rect.Dy()

	eq := claheEqualize(g.Pix, w, h, e.cfg.TileGrid, e.cfg.ClipLimit)
	smoothed := bilateralFilter(eq, w, h, e.cfg.BilateralDiameter, e.cfg.BilateralSigmaSpace, e.cfg.BilateralSigmaColor)
	bin := adaptiveThreshold(smoothed, w, h, e.cfg.ThresholdBlock, e.cfg.ThresholdC)

	slog.Debug("scan enhancement applied",
		"width", w, "height", h,
		"clip_limit", e.cfg.ClipLimit,
		"threshold_block", e.cfg.ThresholdBlock)

	return &image.Gray{Pix: bin, Stride: w, Rect: image.Rect(0, 0, w, h)}
}

// highContrast applies a stronger local equalization but keeps the full
// intensity range, so pencil strokes and stamps are not destroyed.
func (e *Enhancer) highContrast(img image.Image) *image.Gray {
	g := grayImage(img)
	w, h := g.Rect.Dx(), g.Rect.Dy()
	eq := claheEqualize(g.Pix, w, h, e.cfg.TileGrid, e.cfg.HighContrastClip)
	return &image.Gray{Pix: eq, Stride: w, Rect: image.Rect(0, 0, w, h)}
}

// grayImage converts img to a tightly packed single-channel image using the
// shared luma weighting.
func grayImage(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := utils.GrayPlane(img, make([]uint8, w*h))
	return &image.Gray{Pix: plane, Stride: w, Rect: image.Rect(0, 0, w, h)}
}

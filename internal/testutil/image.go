package testutil

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Corner is a quad corner in image coordinates.
type Corner struct {
	X float64
	Y float64
}

// DocumentPhotoConfig describes a synthetic "photo of a document": a filled
// convex quadrilateral (the page) on a uniform background.
type DocumentPhotoConfig struct {
	Width      int
	Height     int
	Corners    [4]Corner // TL, TR, BR, BL winding
	Page       color.Color
	Background color.Color
	TextLines  int // optional fake text lines drawn inside the page
}

// DefaultDocumentPhotoConfig mirrors the canonical 800x600 test scene: a white
// page with slight perspective skew on a dark tabletop.
func DefaultDocumentPhotoConfig() DocumentPhotoConfig {
	return DocumentPhotoConfig{
		Width:  800,
		Height: 600,
		Corners: [4]Corner{
			{X: 100, Y: 80},
			{X: 700, Y: 90},
			{X: 690, Y: 560},
			{X: 110, Y: 550},
		},
		Page:       color.RGBA{245, 245, 245, 255},
		Background: color.RGBA{40, 42, 45, 255},
		TextLines:  0,
	}
}

// NewDocumentPhoto renders the configured scene into an NRGBA buffer.
func NewDocumentPhoto(cfg DocumentPhotoConfig) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(cfg.Background), image.Point{}, draw.Src)
	fillConvexQuad(img, cfg.Corners, cfg.Page)
	if cfg.TextLines > 0 {
		drawFakeText(img, cfg)
	}
	return img
}

// NewUniformImage returns a solid-color image, useful for detection-miss cases.
func NewUniformImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// NewGradientImage returns an image with distinct per-pixel values, useful for
// verifying resampling content.
func NewGradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 255) / max(w-1, 1)),
				G: uint8((y * 255) / max(h-1, 1)),
				B: uint8(((x + y) * 255) / max(w+h-2, 1)),
				A: 255,
			})
		}
	}
	return img
}

// fillConvexQuad rasterizes a convex quadrilateral with a scanline fill.
func fillConvexQuad(img *image.NRGBA, corners [4]Corner, c color.Color) {
	minY, maxY := corners[0].Y, corners[0].Y
	for _, p := range corners[1:] {
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	b := img.Bounds()
	y0 := clamp(int(minY), b.Min.Y, b.Max.Y-1)
	y1 := clamp(int(maxY), b.Min.Y, b.Max.Y-1)
	for y := y0; y <= y1; y++ {
		fy := float64(y) + 0.5
		var xs []float64
		for i := range 4 {
			a := corners[i]
			d := corners[(i+1)%4]
			if (a.Y <= fy && d.Y > fy) || (d.Y <= fy && a.Y > fy) {
				t := (fy - a.Y) / (d.Y - a.Y)
				xs = append(xs, a.X+t*(d.X-a.X))
			}
		}
		if len(xs) < 2 {
			continue
		}
		lo, hi := xs[0], xs[0]
		for _, x := range xs[1:] {
			if x < lo {
				lo = x
			}
			if x > hi {
				hi = x
			}
		}
		x0 := clamp(int(lo), b.Min.X, b.Max.X-1)
		x1 := clamp(int(hi), b.Min.X, b.Max.X-1)
		for x := x0; x <= x1; x++ {
			img.Set(x, y, c)
		}
	}
}

// drawFakeText renders a few lines of filler text inside the page region.
func drawFakeText(img *image.NRGBA, cfg DocumentPhotoConfig) {
	minX, minY := cfg.Corners[0].X, cfg.Corners[0].Y
	for _, p := range cfg.Corners[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{30, 30, 30, 255}),
		Face: basicfont.Face7x13,
	}
	for i := range cfg.TextLines {
		d.Dot = fixed.P(int(minX)+40, int(minY)+60+i*24)
		d.DrawString("lorem ipsum dolor sit amet")
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

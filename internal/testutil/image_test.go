package testutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentPhoto(t *testing.T) {
	cfg := DefaultDocumentPhotoConfig()
	img := NewDocumentPhoto(cfg)
	require.NotNil(t, img)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())

	// Center of the page is page-colored, corners of the frame are background.
	r, g, b, _ := img.At(400, 300).RGBA()
	assert.Greater(t, int(r>>8), 200)
	assert.Greater(t, int(g>>8), 200)
	assert.Greater(t, int(b>>8), 200)

	r, _, _, _ = img.At(5, 5).RGBA()
	assert.Less(t, int(r>>8), 100)
}

func TestNewDocumentPhotoWithText(t *testing.T) {
	cfg := DefaultDocumentPhotoConfig()
	cfg.TextLines = 3
	img := NewDocumentPhoto(cfg)

	// Some dark pixels must exist inside the page.
	dark := 0
	for y := 100; y < 200; y++ {
		for x := 140; x < 400; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			if r>>8 < 100 {
				dark++
			}
		}
	}
	assert.Positive(t, dark)
}

func TestNewUniformImage(t *testing.T) {
	img := NewUniformImage(50, 40, color.Gray{Y: 128})
	assert.Equal(t, 50, img.Bounds().Dx())
	r, _, _, _ := img.At(25, 20).RGBA()
	assert.Equal(t, 128, int(r>>8))
}

func TestNewGradientImage(t *testing.T) {
	img := NewGradientImage(10, 10)
	first := img.NRGBAAt(0, 0)
	last := img.NRGBAAt(9, 9)
	assert.NotEqual(t, first, last)
}

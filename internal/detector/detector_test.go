package detector

import (
	"image/color"
	"testing"

	"github.com/snapscan/snapscan/internal/testutil"
	"github.com/snapscan/snapscan/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectNilImage(t *testing.T) {
	d := New(DefaultConfig())
	_, err := d.Detect(nil)
	assert.Error(t, err)
}

func TestDetectDeclinesUndersizedInput(t *testing.T) {
	d := New(DefaultConfig())
	quad, err := d.Detect(testutil.NewUniformImage(10, 10, color.White))
	require.NoError(t, err)
	assert.Nil(t, quad)
}

func TestDetectUniformImage(t *testing.T) {
	d := New(DefaultConfig())
	quad, err := d.Detect(testutil.NewUniformImage(400, 300, color.Gray{Y: 128}))
	require.NoError(t, err)
	assert.Nil(t, quad, "a blank image has no boundary")
}

func TestDetectDocumentPhoto(t *testing.T) {
	cfg := testutil.DefaultDocumentPhotoConfig()
	img := testutil.NewDocumentPhoto(cfg)

	d := New(DefaultConfig())
	quad, err := d.Detect(img)
	require.NoError(t, err)
	require.Len(t, quad, 4)

	ordered := utils.OrderQuad(quad)
	want := [4]utils.Point{
		{X: 100, Y: 80},
		{X: 700, Y: 90},
		{X: 690, Y: 560},
		{X: 110, Y: 550},
	}
	for i := range 4 {
		assert.InDelta(t, want[i].X, ordered[i].X, 12, "corner %d x", i)
		assert.InDelta(t, want[i].Y, ordered[i].Y, 12, "corner %d y", i)
	}
}

func TestDetectDocumentPhotoWithText(t *testing.T) {
	cfg := testutil.DefaultDocumentPhotoConfig()
	cfg.TextLines = 5
	img := testutil.NewDocumentPhoto(cfg)

	d := New(DefaultConfig())
	quad, err := d.Detect(img)
	require.NoError(t, err)
	require.Len(t, quad, 4, "interior text must not hide the page outline")

	area := utils.PolygonArea(quad)
	assert.Greater(t, area, 0.2*800*600)
}

func TestDetectRejectsSmallQuad(t *testing.T) {
	// A page covering ~4% of the frame is below the 20% area floor.
	cfg := testutil.DocumentPhotoConfig{
		Width:  800,
		Height: 600,
		Corners: [4]testutil.Corner{
			{X: 350, Y: 250},
			{X: 470, Y: 255},
			{X: 465, Y: 370},
			{X: 355, Y: 365},
		},
		Page:       color.RGBA{245, 245, 245, 255},
		Background: color.RGBA{40, 42, 45, 255},
	}
	img := testutil.NewDocumentPhoto(cfg)

	d := New(DefaultConfig())
	quad, err := d.Detect(img)
	require.NoError(t, err)
	assert.Nil(t, quad)
}

func TestDetectDownscalesTallImages(t *testing.T) {
	cfg := testutil.DocumentPhotoConfig{
		Width:  1200,
		Height: 1600,
		Corners: [4]testutil.Corner{
			{X: 150, Y: 200},
			{X: 1050, Y: 220},
			{X: 1030, Y: 1400},
			{X: 170, Y: 1380},
		},
		Page:       color.RGBA{240, 240, 240, 255},
		Background: color.RGBA{35, 35, 40, 255},
	}
	img := testutil.NewDocumentPhoto(cfg)

	d := New(DefaultConfig())
	quad, err := d.Detect(img)
	require.NoError(t, err)
	require.Len(t, quad, 4)

	// Corners must come back in original, not downscaled, coordinates.
	ordered := utils.OrderQuad(quad)
	assert.InDelta(t, 150, ordered[0].X, 30)
	assert.InDelta(t, 200, ordered[0].Y, 30)
	assert.InDelta(t, 1050, ordered[1].X, 30)
}

func TestDetectDeterministic(t *testing.T) {
	img := testutil.NewDocumentPhoto(testutil.DefaultDocumentPhotoConfig())
	d := New(DefaultConfig())

	first, err := d.Detect(img)
	require.NoError(t, err)
	second, err := d.Detect(img)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNewAppliesDefaults(t *testing.T) {
	d := New(Config{Constraints: utils.DefaultImageConstraints(), MaxProcHeight: 1000})
	assert.InDelta(t, 0.20, d.cfg.MinAreaRatio, 1e-9)
	assert.InDelta(t, 0.02, d.cfg.ApproxEpsilon, 1e-9)
	assert.NotEmpty(t, d.cfg.Thresholds)
}

func TestFindQuadNoEdges(t *testing.T) {
	d := New(DefaultConfig())
	gray := make([]uint8, 100*100)
	for i := range gray {
		gray[i] = 90
	}
	quad := d.findQuad(gray, 100, 100, 30, 100, 500)
	assert.Nil(t, quad)
}

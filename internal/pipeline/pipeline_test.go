package pipeline

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapscan/snapscan/internal/enhance"
	"github.com/snapscan/snapscan/internal/testutil"
	"github.com/snapscan/snapscan/internal/utils"
)

// countingDetector records calls and returns a canned answer.
type countingDetector struct {
	calls int
	quad  []utils.Point
	err   error
}

func (d *countingDetector) Detect(image.Image) ([]utils.Point, error) {
	d.calls++
	return d.quad, d.err
}

// countingRectifier records calls and passes the image through.
type countingRectifier struct {
	calls int
	err   error
}

func (r *countingRectifier) Rectify(img image.Image, _ []utils.Point) (image.Image, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return img, nil
}

func mustBuild(t *testing.T, b *Builder) *Pipeline {
	t.Helper()
	p, err := b.Build()
	require.NoError(t, err)
	return p
}

func TestBuildRejectsInvalidMode(t *testing.T) {
	_, err := NewBuilder().WithMode(enhance.Mode(99)).Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, enhance.ErrUnsupportedMode)
}

func TestProcessNilImage(t *testing.T) {
	p := mustBuild(t, NewBuilder())
	_, err := p.Process(context.Background(), nil)
	assert.Error(t, err)
}

func TestProcessZeroSizeImage(t *testing.T) {
	p := mustBuild(t, NewBuilder())
	_, err := p.Process(context.Background(), image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	assert.Error(t, err)
}

func TestProcessCancelledContext(t *testing.T) {
	p := mustBuild(t, NewBuilder())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Process(ctx, testutil.NewUniformImage(64, 64, color.White))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanDocumentEndToEnd(t *testing.T) {
	// white page with slight perspective skew on a dark tabletop; crop and
	// deskew enabled with scan output
	src := testutil.NewDocumentPhoto(testutil.DefaultDocumentPhotoConfig())
	p := mustBuild(t, NewBuilder().WithMode(enhance.ModeScan))

	res, err := p.Process(context.Background(), src)
	require.NoError(t, err)

	assert.True(t, res.BoundaryFound)
	assert.True(t, res.TransformApplied)
	require.Len(t, res.Quad, 4)

	out, ok := res.Image.(*image.Gray)
	require.True(t, ok, "scan output must be single-channel")

	// edge lengths of the detected page give roughly a 600x470 rectangle
	b := out.Bounds()
	assert.InDelta(t, 600, b.Dx(), 25)
	assert.InDelta(t, 470, b.Dy(), 25)
}

func TestAutoCropDisabledSkipsDetector(t *testing.T) {
	src := testutil.NewDocumentPhoto(testutil.DefaultDocumentPhotoConfig())
	p := mustBuild(t, NewBuilder().WithAutoCrop(false).WithMode(enhance.ModeGrayscale))

	det := &countingDetector{quad: []utils.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}}
	rec := &countingRectifier{}
	p.detector = det
	p.rectifier = rec

	res, err := p.Process(context.Background(), src)
	require.NoError(t, err)

	assert.Zero(t, det.calls, "detector must not run when auto-crop is off")
	assert.Zero(t, rec.calls)
	assert.False(t, res.BoundaryFound)
	assert.False(t, res.TransformApplied)

	// mode is still applied and dimensions are untouched
	out, ok := res.Image.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, 800, out.Bounds().Dx())
	assert.Equal(t, 600, out.Bounds().Dy())
}

func TestDetectionMissFallsThrough(t *testing.T) {
	src := testutil.NewUniformImage(320, 240, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	p := mustBuild(t, NewBuilder().WithMode(enhance.ModeGrayscale))

	res, err := p.Process(context.Background(), src)
	require.NoError(t, err)

	assert.False(t, res.BoundaryFound)
	assert.False(t, res.TransformApplied)
	assert.Nil(t, res.Quad)
	assert.Equal(t, 320, res.Image.Bounds().Dx())
	assert.Equal(t, 240, res.Image.Bounds().Dy())
}

func TestDeskewDisabledKeepsOriginalGeometry(t *testing.T) {
	src := testutil.NewDocumentPhoto(testutil.DefaultDocumentPhotoConfig())
	p := mustBuild(t, NewBuilder().WithDeskew(false).WithMode(enhance.ModeOriginal))

	rec := &countingRectifier{}
	p.rectifier = rec

	res, err := p.Process(context.Background(), src)
	require.NoError(t, err)

	assert.True(t, res.BoundaryFound)
	assert.False(t, res.TransformApplied)
	assert.Zero(t, rec.calls, "rectifier must not run when deskew is off")
	assert.Equal(t, 800, res.Image.Bounds().Dx())
	assert.Equal(t, 600, res.Image.Bounds().Dy())
}

func TestDegenerateQuadIsAbsorbed(t *testing.T) {
	src := testutil.NewUniformImage(100, 100, color.White)
	p := mustBuild(t, NewBuilder().WithMode(enhance.ModeGrayscale))

	// zero-area quad makes the real rectifier report a degenerate target
	p.detector = &countingDetector{quad: []utils.Point{
		{X: 50, Y: 50}, {X: 50, Y: 50}, {X: 50, Y: 50}, {X: 50, Y: 50},
	}}

	res, err := p.Process(context.Background(), src)
	require.NoError(t, err)

	assert.True(t, res.BoundaryFound)
	assert.False(t, res.TransformApplied)
	assert.Equal(t, 100, res.Image.Bounds().Dx())
}

func TestResultQuadIsCanonical(t *testing.T) {
	src := testutil.NewUniformImage(200, 200, color.White)
	p := mustBuild(t, NewBuilder().WithDeskew(false).WithMode(enhance.ModeOriginal))

	// corners delivered in scrambled order
	p.detector = &countingDetector{quad: []utils.Point{
		{X: 180, Y: 170}, {X: 20, Y: 10}, {X: 10, Y: 180}, {X: 170, Y: 20},
	}}

	res, err := p.Process(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, res.Quad, 4)

	assert.Equal(t, utils.Point{X: 20, Y: 10}, res.Quad[0], "top-left first")
	assert.Equal(t, utils.Point{X: 170, Y: 20}, res.Quad[1])
	assert.Equal(t, utils.Point{X: 180, Y: 170}, res.Quad[2])
	assert.Equal(t, utils.Point{X: 10, Y: 180}, res.Quad[3])
}

func TestProgressStageOrder(t *testing.T) {
	src := testutil.NewDocumentPhoto(testutil.DefaultDocumentPhotoConfig())

	var stages []Stage
	p := mustBuild(t, NewBuilder().
		WithMode(enhance.ModeGrayscale).
		WithProgress(func(s Stage) { stages = append(stages, s) }))

	_, err := p.Process(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []Stage{StageDetect, StageRectify, StageEnhance, StageDone}, stages)
}

func TestProgressStageOrderWithoutCrop(t *testing.T) {
	src := testutil.NewUniformImage(64, 64, color.White)

	var stages []Stage
	p := mustBuild(t, NewBuilder().
		WithAutoCrop(false).
		WithMode(enhance.ModeOriginal).
		WithProgress(func(s Stage) { stages = append(stages, s) }))

	_, err := p.Process(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []Stage{StageEnhance, StageDone}, stages)
}

func TestTimingsPopulated(t *testing.T) {
	src := testutil.NewDocumentPhoto(testutil.DefaultDocumentPhotoConfig())
	p := mustBuild(t, NewBuilder().WithMode(enhance.ModeScan))

	res, err := p.Process(context.Background(), src)
	require.NoError(t, err)

	assert.Positive(t, res.Timings.Detect)
	assert.Positive(t, res.Timings.Enhance)
	assert.Positive(t, res.Timings.Total)
}

func TestConcurrentRuns(t *testing.T) {
	p := mustBuild(t, NewBuilder().WithMode(enhance.ModeScan))
	src := testutil.NewDocumentPhoto(testutil.DefaultDocumentPhotoConfig())

	const workers = 4
	errs := make(chan error, workers)
	for range workers {
		go func() {
			_, err := p.Process(context.Background(), src)
			errs <- err
		}()
	}
	for range workers {
		require.NoError(t, <-errs)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.AutoCrop)
	assert.True(t, cfg.Deskew)
	assert.Equal(t, enhance.ModeScan, cfg.Mode)
}

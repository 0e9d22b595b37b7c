package pipeline

import (
	"context"
	"errors"
	"image"
	"log/slog"

	"github.com/snapscan/snapscan/internal/common"
	"github.com/snapscan/snapscan/internal/rectify"
	"github.com/snapscan/snapscan/internal/utils"
)

// Process runs one scan over img and returns a fresh Result. Detection misses
// and degenerate rectification targets are absorbed into result metadata;
// only malformed input, an invalid mode, or context cancellation abort the
// run. The input image is never modified.
func (p *Pipeline) Process(ctx context.Context, img image.Image) (*Result, error) {
	if err := utils.ValidateInput(img); err != nil {
		return nil, err
	}

	total := common.NewNamedTimer("pipeline")
	res := &Result{}
	work := img

	if p.cfg.AutoCrop {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		work = p.detectAndRectify(img, res)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.notify(StageEnhance)
	t := common.NewTimer()
	out, err := p.enhancer.Apply(work, p.cfg.Mode)
	res.Timings.Enhance = t.Stop()
	if err != nil {
		return nil, err
	}
	res.Image = out
	res.Timings.Total = total.Stop()
	p.notify(StageDone)

	slog.Debug("pipeline run complete",
		"boundary_found", res.BoundaryFound,
		"transform_applied", res.TransformApplied,
		"mode", p.cfg.Mode.String(),
		"duration", res.Timings.Total)
	return res, nil
}

// detectAndRectify runs the optional geometry stages and returns the buffer
// the enhancer should work on. A miss or a degenerate quad falls back to the
// original image.
func (p *Pipeline) detectAndRectify(img image.Image, res *Result) image.Image {
	p.notify(StageDetect)
	t := common.NewTimer()
	quad, err := p.detector.Detect(img)
	res.Timings.Detect = t.Stop()
	if err != nil || quad == nil {
		if err != nil {
			slog.Warn("boundary detection failed, using original image", "error", err)
		}
		return img
	}

	res.BoundaryFound = true
	ordered := utils.OrderQuad(quad)
	res.Quad = ordered[:]

	if !p.cfg.Deskew {
		return img
	}

	p.notify(StageRectify)
	t = common.NewTimer()
	warped, err := p.rectifier.Rectify(img, quad)
	res.Timings.Rectify = t.Stop()
	if err != nil {
		if !errors.Is(err, rectify.ErrDegenerateQuad) {
			slog.Warn("rectification failed, using original image", "error", err)
		}
		return img
	}
	res.TransformApplied = true
	return warped
}

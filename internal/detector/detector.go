// Package detector locates the most likely document quadrilateral in a
// photograph using classical edge analysis: Gaussian smoothing, a Canny-style
// gradient detector with two-threshold hysteresis, contour extraction and
// polygon approximation.
package detector

import (
	"errors"
	"image"
	"log/slog"

	"github.com/anthonynsimon/bild/blur"
	"github.com/snapscan/snapscan/internal/mempool"
	"github.com/snapscan/snapscan/internal/utils"
)

// Config holds tuning parameters for boundary detection.
type Config struct {
	MinAreaRatio  float64                // minimum quad area as a fraction of image area
	MaxProcHeight int                    // images taller than this are downscaled before analysis
	BlurRadius    float64                // Gaussian smoothing radius applied before edge extraction
	ApproxEpsilon float64                // polygon approximation tolerance as a fraction of contour perimeter
	Thresholds    [][2]float32           // (low, high) hysteresis threshold pairs, tried in order
	Constraints   utils.ImageConstraints // inputs below these dimensions are declined
}

// DefaultConfig returns the detection defaults: a document must cover at
// least 20% of the frame, analysis runs on at most 1000px of height, and
// three progressively stricter threshold pairs are tried.
func DefaultConfig() Config {
	return Config{
		MinAreaRatio:  0.20,
		MaxProcHeight: 1000,
		BlurRadius:    2.0,
		ApproxEpsilon: 0.02,
		Thresholds:    [][2]float32{{30, 100}, {50, 150}, {75, 200}},
		Constraints:   utils.DefaultImageConstraints(),
	}
}

// Detector finds document boundaries in images.
type Detector struct {
	cfg Config
}

// New creates a Detector with the given configuration.
func New(cfg Config) *Detector {
	if cfg.MinAreaRatio <= 0 {
		cfg.MinAreaRatio = 0.20
	}
	if cfg.ApproxEpsilon <= 0 {
		cfg.ApproxEpsilon = 0.02
	}
	if len(cfg.Thresholds) == 0 {
		cfg.Thresholds = DefaultConfig().Thresholds
	}
	return &Detector{cfg: cfg}
}

// Detect returns the four corners of the most likely document quadrilateral
// in image coordinates, or nil if no suitable boundary exists. A nil quad is
// an expected outcome, not an error: callers fall back to the original image.
func (d *Detector) Detect(img image.Image) ([]utils.Point, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	if !utils.MeetsConstraints(img, d.cfg.Constraints) {
		slog.Debug("detector declined undersized input",
			"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
		return nil, nil
	}

	b := img.Bounds()
	proc, scale := utils.DownscaleToHeight(img, d.cfg.MaxProcHeight)
	blurred := blur.Gaussian(proc, d.cfg.BlurRadius)

	pb := blurred.Bounds()
	pw, ph := pb.Dx(), pb.Dy()
	gray := mempool.GetUint8(pw * ph)
	defer mempool.PutUint8(gray)
	gray = utils.GrayPlane(blurred, gray)

	// Area floor in processing coordinates.
	minArea := d.cfg.MinAreaRatio * float64(b.Dx()*b.Dy()) * scale * scale

	for _, th := range d.cfg.Thresholds {
		quad := d.findQuad(gray, pw, ph, th[0], th[1], minArea)
		if quad != nil {
			slog.Debug("document boundary found",
				"low", th[0], "high", th[1], "area", utils.PolygonArea(quad))
			return utils.ScalePoints(quad, 1/scale, 1/scale), nil
		}
	}
	slog.Debug("no document boundary found")
	return nil, nil
}

// findQuad runs one edge-extraction pass at the given hysteresis thresholds
// and returns the largest four-vertex contour approximation above minArea.
// Candidates are scanned in row-major component discovery order; on equal
// area the earlier candidate wins.
func (d *Detector) findQuad(gray []uint8, w, h int, low, high float32, minArea float64) []utils.Point {
	edges := cannyEdges(gray, w, h, low, high)
	defer mempool.PutBool(edges)
	dilate3x3(edges, w, h)

	labels, comps := labelComponents(edges, w, h)

	var best []utils.Point
	bestArea := 0.0
	for i, st := range comps {
		if st.count < 8 {
			continue
		}
		contour := traceContourMoore(labels, w, h, i+1, st)
		if len(contour) < 4 {
			continue
		}
		eps := d.cfg.ApproxEpsilon * utils.PolygonPerimeter(contour)
		approx := utils.SimplifyClosedPolygon(contour, eps)
		if len(approx) != 4 {
			continue
		}
		area := utils.PolygonArea(approx)
		if area < minArea {
			continue
		}
		if area > bestArea {
			bestArea = area
			best = approx
		}
	}
	return best
}

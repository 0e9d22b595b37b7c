package pipeline

import (
	"image"
	"time"

	"github.com/snapscan/snapscan/internal/utils"
)

// StageTimings records wall-clock durations of the individual stages. Stages
// that did not run report zero.
type StageTimings struct {
	Detect  time.Duration
	Rectify time.Duration
	Enhance time.Duration
	Total   time.Duration
}

// Result is the outcome of one pipeline run. It is created fresh per
// invocation; no state persists across calls.
type Result struct {
	// Image is the enhanced output buffer.
	Image image.Image
	// BoundaryFound reports whether detection yielded a document quad. A
	// miss is a legitimate outcome, not an error.
	BoundaryFound bool
	// TransformApplied reports whether perspective correction actually ran.
	// It stays false when detection missed, deskew was disabled, or the
	// computed destination rectangle degenerated.
	TransformApplied bool
	// Quad holds the detected boundary in top-left, top-right, bottom-right,
	// bottom-left order, in original image coordinates. Nil when no boundary
	// was found.
	Quad []utils.Point
	// Timings carries per-stage durations for logging and metrics.
	Timings StageTimings
}

// Package pipeline sequences boundary detection, perspective correction, and
// enhancement into a single document-scanning run, and reports what actually
// happened along the way.
package pipeline

import (
	"image"

	"github.com/snapscan/snapscan/internal/detector"
	"github.com/snapscan/snapscan/internal/enhance"
	"github.com/snapscan/snapscan/internal/rectify"
	"github.com/snapscan/snapscan/internal/utils"
)

// Config holds configuration for one pipeline run and its components. It is
// immutable for the duration of a run.
type Config struct {
	// AutoCrop enables boundary detection. When false, detection and
	// rectification are skipped entirely regardless of Deskew.
	AutoCrop bool
	// Deskew enables perspective correction of a detected boundary.
	Deskew bool
	// Mode selects the output rendering.
	Mode enhance.Mode

	Detector detector.Config
	Enhance  enhance.Config
}

// DefaultConfig returns a pipeline config with component defaults: crop and
// deskew enabled, scan-mode output.
func DefaultConfig() Config {
	return Config{
		AutoCrop: true,
		Deskew:   true,
		Mode:     enhance.ModeScan,
		Detector: detector.DefaultConfig(),
		Enhance:  enhance.DefaultConfig(),
	}
}

// boundaryDetector finds a document quad, or nothing.
type boundaryDetector interface {
	Detect(img image.Image) ([]utils.Point, error)
}

// quadRectifier warps the region under a quad into an upright rectangle.
type quadRectifier interface {
	Rectify(img image.Image, quad []utils.Point) (image.Image, error)
}

// imageEnhancer renders the page into an output mode.
type imageEnhancer interface {
	Apply(img image.Image, mode enhance.Mode) (image.Image, error)
}

// Pipeline is a stateless document scanner. It is safe for concurrent use:
// every run works on its own buffers and no state is shared across calls.
type Pipeline struct {
	cfg       Config
	detector  boundaryDetector
	rectifier quadRectifier
	enhancer  imageEnhancer
	progress  ProgressFunc
}

// Config returns a copy of the pipeline's configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg      Config
	progress ProgressFunc
}

// NewBuilder creates a pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithAutoCrop toggles boundary detection.
func (b *Builder) WithAutoCrop(enabled bool) *Builder {
	b.cfg.AutoCrop = enabled
	return b
}

// WithDeskew toggles perspective correction of detected boundaries.
func (b *Builder) WithDeskew(enabled bool) *Builder {
	b.cfg.Deskew = enabled
	return b
}

// WithMode sets the enhancement mode.
func (b *Builder) WithMode(mode enhance.Mode) *Builder {
	b.cfg.Mode = mode
	return b
}

// WithDetectorConfig overrides the boundary detector tuning.
func (b *Builder) WithDetectorConfig(cfg detector.Config) *Builder {
	b.cfg.Detector = cfg
	return b
}

// WithEnhanceConfig overrides the enhancer tuning.
func (b *Builder) WithEnhanceConfig(cfg enhance.Config) *Builder {
	b.cfg.Enhance = cfg
	return b
}

// WithProgress registers a per-stage progress callback.
func (b *Builder) WithProgress(fn ProgressFunc) *Builder {
	b.progress = fn
	return b
}

// Build validates the configuration and assembles the pipeline. A mode
// outside the closed enumeration is a construction error, never silently
// mapped to a default.
func (b *Builder) Build() (*Pipeline, error) {
	return newPipeline(b.cfg, b.progress)
}

// New assembles a pipeline directly from a config.
func New(cfg Config) (*Pipeline, error) {
	return newPipeline(cfg, nil)
}

func newPipeline(cfg Config, progress ProgressFunc) (*Pipeline, error) {
	if !cfg.Mode.Valid() {
		return nil, enhance.ErrUnsupportedMode
	}
	return &Pipeline{
		cfg:       cfg,
		detector:  detector.New(cfg.Detector),
		rectifier: rectify.New(),
		enhancer:  enhance.New(cfg.Enhance),
		progress:  progress,
	}, nil
}

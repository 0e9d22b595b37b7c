// Package server exposes the scan pipeline over HTTP: multipart uploads in,
// rendered scans (or JSON metadata) out, plus health, mode discovery,
// Prometheus metrics, and a WebSocket channel with per-stage progress.
package server

import (
	"context"
	"fmt"
	"image"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/snapscan/snapscan/internal/enhance"
	"github.com/snapscan/snapscan/internal/export"
	"github.com/snapscan/snapscan/internal/pipeline"
)

// scanPipeline defines what the server needs from a pipeline.
type scanPipeline interface {
	Process(ctx context.Context, img image.Image) (*pipeline.Result, error)
}

// pipelineFactory builds a pipeline for one request's settings.
type pipelineFactory func(cfg pipeline.Config) (scanPipeline, error)

// Server holds the HTTP server state and dependencies.
type Server struct {
	baseConfig  pipeline.Config
	pdfConfig   export.PDFConfig
	newPipeline pipelineFactory
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
	limiter     *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int
	// ScansPerMinute and MaxDailyUploadMB bound each client's use of the
	// processing endpoint; zero disables the respective limit.
	ScansPerMinute   int
	MaxDailyUploadMB int64
	Pipeline         pipeline.Config
	PDF              export.PDFConfig
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// ModeInfo describes one enhancement mode.
type ModeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ModesResponse lists the available enhancement modes.
type ModesResponse struct {
	Modes []ModeInfo `json:"modes"`
	Count int        `json:"count"`
}

// ScanResult carries the metadata of one processed scan.
type ScanResult struct {
	BoundaryFound    bool         `json:"boundary_found"`
	TransformApplied bool         `json:"transform_applied"`
	Mode             string       `json:"mode"`
	Width            int          `json:"width"`
	Height           int          `json:"height"`
	Quad             [][2]float64 `json:"quad,omitempty"`
	Image            []byte       `json:"image,omitempty"` // PNG bytes, base64 in JSON
	Processing       struct {
		DetectTimeMs  int64 `json:"detect_time_ms"`
		RectifyTimeMs int64 `json:"rectify_time_ms"`
		EnhanceTimeMs int64 `json:"enhance_time_ms"`
		TotalTimeMs   int64 `json:"total_time_ms"`
	} `json:"processing"`
}

// ScanResponse is the JSON envelope for scan requests.
type ScanResponse struct {
	Success bool        `json:"success"`
	Result  *ScanResult `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NewServer creates a scan server instance. The pipeline configuration is
// validated eagerly so a bad mode fails at startup, not per request.
func NewServer(config Config) (*Server, error) {
	if _, err := pipeline.New(config.Pipeline); err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}
	if config.MaxUploadMB <= 0 {
		config.MaxUploadMB = 50
	}
	var limiter *RateLimiter
	if config.ScansPerMinute > 0 || config.MaxDailyUploadMB > 0 {
		limiter = NewRateLimiter(config.ScansPerMinute, config.MaxDailyUploadMB*1024*1024)
	}
	return &Server{
		baseConfig:  config.Pipeline,
		pdfConfig:   config.PDF,
		newPipeline: func(cfg pipeline.Config) (scanPipeline, error) { return pipeline.New(cfg) },
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
		limiter:     limiter,
	}, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/modes", s.corsMiddleware(s.modesHandler))
	mux.HandleFunc("/process", s.corsMiddleware(s.processHandler))
	mux.HandleFunc("/ws", s.scanWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// modeDescriptions maps each mode to its user-facing summary.
var modeDescriptions = map[enhance.Mode]string{
	enhance.ModeOriginal:     "Pixels unchanged",
	enhance.ModeGrayscale:    "Single-channel luma rendering",
	enhance.ModeScan:         "Binarized black-on-white document rendering",
	enhance.ModeHighContrast: "Contrast-stretched grayscale for faded originals",
}

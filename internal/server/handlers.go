package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	_ "golang.org/x/image/bmp"

	"github.com/snapscan/snapscan/internal/enhance"
	"github.com/snapscan/snapscan/internal/export"
	"github.com/snapscan/snapscan/internal/pipeline"
	"github.com/snapscan/snapscan/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode health response", "error", err)
	}
}

// modesHandler returns the available enhancement modes.
func (s *Server) modesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	modes := enhance.Modes()
	list := make([]ModeInfo, len(modes))
	for i, m := range modes {
		list[i] = ModeInfo{Name: m.String(), Description: modeDescriptions[m]}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ModesResponse{Modes: list, Count: len(list)}); err != nil {
		slog.Error("failed to encode modes response", "error", err)
	}
}

// processHandler runs the scan pipeline over an uploaded image. Form fields
// mode, auto_crop, and deskew override the server defaults per request;
// format selects the response encoding (png, jpeg, pdf, or json).
func (s *Server) processHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)
	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	uploadSizeBytes.Observe(float64(header.Size))

	if s.limiter != nil {
		if err := s.limiter.Allow(clientAddr(r), header.Size); err != nil {
			rateLimitedTotal.Inc()
			var rle *RateLimitError
			if errors.As(err, &rle) {
				w.Header().Set("Retry-After", strconv.Itoa(int(rle.RetryAfter.Seconds())+1))
			}
			s.writeErrorResponse(w, err.Error(), http.StatusTooManyRequests)
			return
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read image data", http.StatusInternalServerError)
		return
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
		return
	}

	cfg, err := s.requestConfig(r)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.runScan(r.Context(), cfg, img)
	if err != nil {
		scanRequestsTotal.WithLabelValues(cfg.Mode.String(), "error").Inc()
		status := http.StatusInternalServerError
		if errors.Is(err, enhance.ErrUnsupportedMode) {
			status = http.StatusBadRequest
		}
		s.writeErrorResponse(w, fmt.Sprintf("Scan processing failed: %v", err), status)
		return
	}

	scanRequestsTotal.WithLabelValues(cfg.Mode.String(), "ok").Inc()
	scanProcessingDuration.WithLabelValues(cfg.Mode.String()).Observe(res.Timings.Total.Seconds())
	boundariesDetected.WithLabelValues(strconv.FormatBool(res.BoundaryFound)).Inc()

	s.writeScanResponse(w, r, cfg, res)
}

// clientAddr identifies the requesting client for rate limiting purposes.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestConfig derives the per-request pipeline configuration from the
// server defaults and form overrides.
func (s *Server) requestConfig(r *http.Request) (pipeline.Config, error) {
	cfg := s.baseConfig
	if v := r.FormValue("mode"); v != "" {
		mode, err := enhance.ParseMode(v)
		if err != nil {
			return cfg, err
		}
		cfg.Mode = mode
	}
	if v := r.FormValue("auto_crop"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid auto_crop value %q", v)
		}
		cfg.AutoCrop = b
	}
	if v := r.FormValue("deskew"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid deskew value %q", v)
		}
		cfg.Deskew = b
	}
	return cfg, nil
}

// runScan executes one pipeline run under the configured request timeout.
func (s *Server) runScan(ctx context.Context, cfg pipeline.Config, img image.Image) (*pipeline.Result, error) {
	if s.timeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.timeoutSec)*time.Second)
		defer cancel()
	}
	pl, err := s.newPipeline(cfg)
	if err != nil {
		return nil, err
	}
	return pl.Process(ctx, img)
}

// writeScanResponse encodes the result in the requested format.
func (s *Server) writeScanResponse(w http.ResponseWriter, r *http.Request, cfg pipeline.Config, res *pipeline.Result) {
	w.Header().Set("X-Boundary-Found", strconv.FormatBool(res.BoundaryFound))
	w.Header().Set("X-Transform-Applied", strconv.FormatBool(res.TransformApplied))

	switch r.FormValue("format") {
	case "", "png":
		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, res.Image); err != nil {
			slog.Error("failed to encode png response", "error", err)
		}
	case "jpg", "jpeg":
		w.Header().Set("Content-Type", "image/jpeg")
		if err := jpeg.Encode(w, res.Image, &jpeg.Options{Quality: 95}); err != nil {
			slog.Error("failed to encode jpeg response", "error", err)
		}
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
		if err := export.PDF(w, s.pdfConfig, res.Image); err != nil {
			slog.Error("failed to export pdf response", "error", err)
		}
	case "json":
		result, err := buildScanResult(cfg, res, true)
		if err != nil {
			s.writeErrorResponse(w, "Failed to encode result image", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(ScanResponse{Success: true, Result: result}); err != nil {
			slog.Error("failed to encode scan response", "error", err)
		}
	default:
		s.writeErrorResponse(w, fmt.Sprintf("Unsupported output format %q", r.FormValue("format")), http.StatusBadRequest)
	}
}

// buildScanResult converts a pipeline result into the API representation.
func buildScanResult(cfg pipeline.Config, res *pipeline.Result, includeImage bool) (*ScanResult, error) {
	b := res.Image.Bounds()
	out := &ScanResult{
		BoundaryFound:    res.BoundaryFound,
		TransformApplied: res.TransformApplied,
		Mode:             cfg.Mode.String(),
		Width:            b.Dx(),
		Height:           b.Dy(),
	}
	for _, p := range res.Quad {
		out.Quad = append(out.Quad, [2]float64{p.X, p.Y})
	}
	out.Processing.DetectTimeMs = res.Timings.Detect.Milliseconds()
	out.Processing.RectifyTimeMs = res.Timings.Rectify.Milliseconds()
	out.Processing.EnhanceTimeMs = res.Timings.Enhance.Milliseconds()
	out.Processing.TotalTimeMs = res.Timings.Total.Milliseconds()

	if includeImage {
		var buf bytes.Buffer
		if err := png.Encode(&buf, res.Image); err != nil {
			return nil, err
		}
		out.Image = buf.Bytes()
	}
	return out, nil
}

// writeErrorResponse writes a JSON error envelope.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ScanResponse{Success: false, Error: message}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

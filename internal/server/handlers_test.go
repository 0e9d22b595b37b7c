package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapscan/snapscan/internal/export"
	"github.com/snapscan/snapscan/internal/pipeline"
	"github.com/snapscan/snapscan/internal/testutil"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(Config{
		Host:        "localhost",
		Port:        8080,
		CORSOrigin:  "*",
		MaxUploadMB: 10,
		TimeoutSec:  30,
		Pipeline:    pipeline.DefaultConfig(),
		PDF:         export.DefaultPDFConfig(),
	})
	require.NoError(t, err)
	return srv
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	newTestServer(t).SetupRoutes(mux)
	return mux
}

// multipartScanRequest builds a POST /process request carrying img as a PNG
// upload plus the given form fields.
func multipartScanRequest(t *testing.T, img image.Image, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(fw, img))
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProcessRateLimited(t *testing.T) {
	srv, err := NewServer(Config{
		MaxUploadMB:    10,
		ScansPerMinute: 1,
		Pipeline:       pipeline.DefaultConfig(),
		PDF:            export.DefaultPDFConfig(),
	})
	require.NoError(t, err)
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	img := testutil.NewUniformImage(64, 48, color.White)
	fields := map[string]string{"auto_crop": "false", "mode": "grayscale"}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, multipartScanRequest(t, img, fields))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, multipartScanRequest(t, img, fields))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var resp ScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "rate limit")
}

func TestHealthHandler(t *testing.T) {
	mux := newTestMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Time)
}

func TestHealthHandlerMethodNotAllowed(t *testing.T) {
	mux := newTestMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestModesHandler(t *testing.T) {
	mux := newTestMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/modes", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ModesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Count)

	names := make([]string, len(resp.Modes))
	for i, m := range resp.Modes {
		names[i] = m.Name
		assert.NotEmpty(t, m.Description)
	}
	assert.Contains(t, names, "scan")
	assert.Contains(t, names, "high-contrast")
}

func TestProcessScanReturnsPNG(t *testing.T) {
	mux := newTestMux(t)
	src := testutil.NewDocumentPhoto(testutil.DefaultDocumentPhotoConfig())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, multipartScanRequest(t, src, map[string]string{"mode": "scan"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "true", rec.Header().Get("X-Boundary-Found"))
	assert.Equal(t, "true", rec.Header().Get("X-Transform-Applied"))

	out, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.InDelta(t, 600, out.Bounds().Dx(), 25)
	assert.InDelta(t, 470, out.Bounds().Dy(), 25)
}

func TestProcessJSONFormat(t *testing.T) {
	mux := newTestMux(t)
	src := testutil.NewDocumentPhoto(testutil.DefaultDocumentPhotoConfig())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, multipartScanRequest(t, src, map[string]string{
		"mode":   "grayscale",
		"format": "json",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Result)

	assert.True(t, resp.Result.BoundaryFound)
	assert.True(t, resp.Result.TransformApplied)
	assert.Equal(t, "grayscale", resp.Result.Mode)
	assert.Len(t, resp.Result.Quad, 4)
	assert.NotEmpty(t, resp.Result.Image)

	// embedded image decodes and matches the reported dimensions
	embedded, err := png.Decode(bytes.NewReader(resp.Result.Image))
	require.NoError(t, err)
	assert.Equal(t, resp.Result.Width, embedded.Bounds().Dx())
	assert.Equal(t, resp.Result.Height, embedded.Bounds().Dy())
}

func TestProcessPDFFormat(t *testing.T) {
	mux := newTestMux(t)
	src := testutil.NewGradientImage(160, 120)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, multipartScanRequest(t, src, map[string]string{
		"mode":      "original",
		"auto_crop": "false",
		"format":    "pdf",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Greater(t, len(body), 4)
	assert.Equal(t, "%PDF", string(body[:4]))
}

func TestProcessAutoCropDisabled(t *testing.T) {
	mux := newTestMux(t)
	src := testutil.NewDocumentPhoto(testutil.DefaultDocumentPhotoConfig())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, multipartScanRequest(t, src, map[string]string{
		"mode":      "grayscale",
		"auto_crop": "false",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "false", rec.Header().Get("X-Boundary-Found"))
	assert.Equal(t, "false", rec.Header().Get("X-Transform-Applied"))

	out, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 800, out.Bounds().Dx())
	assert.Equal(t, 600, out.Bounds().Dy())
}

func TestProcessMissingFile(t *testing.T) {
	mux := newTestMux(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("mode", "scan"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestProcessInvalidImageData(t *testing.T) {
	mux := newTestMux(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not an image"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessUnknownMode(t *testing.T) {
	mux := newTestMux(t)
	src := testutil.NewUniformImage(64, 64, color.White)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, multipartScanRequest(t, src, map[string]string{"mode": "sepia"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessUnknownFormat(t *testing.T) {
	mux := newTestMux(t)
	src := testutil.NewUniformImage(64, 64, color.White)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, multipartScanRequest(t, src, map[string]string{
		"auto_crop": "false",
		"format":    "tiff",
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessMethodNotAllowed(t *testing.T) {
	mux := newTestMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/process", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	mux := newTestMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/process", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestMetricsEndpoint(t *testing.T) {
	mux := newTestMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "snapscan_")
}

func TestNewServerRejectsInvalidPipeline(t *testing.T) {
	cfg := pipeline.DefaultConfig()
	cfg.Mode = 99
	_, err := NewServer(Config{Pipeline: cfg})
	assert.Error(t, err)
}

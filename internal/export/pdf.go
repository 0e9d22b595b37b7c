// Package export wraps scan renderings into shareable documents. The core
// pipeline stays a pure in-memory transform; encoding and page layout live
// here.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/snapscan/snapscan/internal/utils"
)

// PDFConfig controls page layout of exported documents.
type PDFConfig struct {
	// Form is the page size name understood by the PDF layer, e.g. "A4" or
	// "Letter".
	Form string
	// Scale is the relative share of the page the image may occupy, leaving
	// the rest as margin. Must be in (0, 1].
	Scale float64
}

// DefaultPDFConfig centers the scan on an A4 page with a modest margin.
func DefaultPDFConfig() PDFConfig {
	return PDFConfig{Form: "A4", Scale: 0.92}
}

// PDF writes the given images as a PDF document to w, one page per image,
// each scaled and centered per cfg.
func PDF(w io.Writer, cfg PDFConfig, images ...image.Image) error {
	if len(images) == 0 {
		return &utils.ImageProcessingError{Operation: "export pdf", Err: fmt.Errorf("no images")}
	}
	for i, img := range images {
		if err := utils.ValidateInput(img); err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
	}

	imp, err := pdfcpu.ParseImportDetails(importDetails(cfg), types.POINTS)
	if err != nil {
		return fmt.Errorf("parse page layout: %w", err)
	}

	readers := make([]io.Reader, len(images))
	for i, img := range images {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("encode page %d: %w", i+1, err)
		}
		readers[i] = &buf
	}

	if err := api.ImportImages(nil, w, readers, imp, nil); err != nil {
		return fmt.Errorf("assemble pdf: %w", err)
	}
	slog.Debug("pdf exported", "pages", len(images), "form", cfg.Form)
	return nil
}

// PDFFile writes the given images as a PDF document at path.
func PDFFile(path string, cfg PDFConfig, images ...image.Image) error {
	f, err := os.Create(path) //nolint:gosec // G304: writing to a user-chosen output path is expected
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := PDF(f, cfg, images...); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// importDetails renders cfg into the PDF layer's import description syntax.
func importDetails(cfg PDFConfig) string {
	form := cfg.Form
	if form == "" {
		form = "A4"
	}
	scale := cfg.Scale
	if scale <= 0 || scale > 1 {
		scale = DefaultPDFConfig().Scale
	}
	return fmt.Sprintf("form:%s, pos:c, scalefactor:%.2f rel", form, scale)
}

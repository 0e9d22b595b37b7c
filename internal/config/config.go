// Package config defines the application configuration for all snapscan
// commands and supports loading it from files, environment variables, and
// command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/snapscan/snapscan/internal/detector"
	"github.com/snapscan/snapscan/internal/enhance"
	"github.com/snapscan/snapscan/internal/export"
	"github.com/snapscan/snapscan/internal/pipeline"
)

// Config represents the complete configuration for the snapscan application.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Scan pipeline configuration
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// PipelineConfig contains scan pipeline settings.
type PipelineConfig struct {
	AutoCrop bool   `mapstructure:"auto_crop" yaml:"auto_crop" json:"auto_crop"`
	Deskew   bool   `mapstructure:"deskew" yaml:"deskew" json:"deskew"`
	Mode     string `mapstructure:"mode" yaml:"mode" json:"mode"`

	Detector DetectorConfig `mapstructure:"detector" yaml:"detector" json:"detector"`
	Enhance  EnhanceConfig  `mapstructure:"enhance" yaml:"enhance" json:"enhance"`
}

// DetectorConfig contains boundary detection settings.
type DetectorConfig struct {
	MinAreaRatio  float64 `mapstructure:"min_area_ratio" yaml:"min_area_ratio" json:"min_area_ratio"`
	MaxProcHeight int     `mapstructure:"max_proc_height" yaml:"max_proc_height" json:"max_proc_height"`
	BlurRadius    float64 `mapstructure:"blur_radius" yaml:"blur_radius" json:"blur_radius"`
	ApproxEpsilon float64 `mapstructure:"approx_epsilon" yaml:"approx_epsilon" json:"approx_epsilon"`
}

// EnhanceConfig contains enhancement settings.
type EnhanceConfig struct {
	ClipLimit         float64 `mapstructure:"clip_limit" yaml:"clip_limit" json:"clip_limit"`
	HighContrastClip  float64 `mapstructure:"high_contrast_clip" yaml:"high_contrast_clip" json:"high_contrast_clip"`
	TileGrid          int     `mapstructure:"tile_grid" yaml:"tile_grid" json:"tile_grid"`
	BilateralDiameter int     `mapstructure:"bilateral_diameter" yaml:"bilateral_diameter" json:"bilateral_diameter"`
	ThresholdBlock    int     `mapstructure:"threshold_block" yaml:"threshold_block" json:"threshold_block"`
	ThresholdC        float64 `mapstructure:"threshold_c" yaml:"threshold_c" json:"threshold_c"`
}

// OutputConfig contains output encoding settings.
type OutputConfig struct {
	Format      string  `mapstructure:"format" yaml:"format" json:"format"`
	File        string  `mapstructure:"file" yaml:"file" json:"file"`
	JPEGQuality int     `mapstructure:"jpeg_quality" yaml:"jpeg_quality" json:"jpeg_quality"`
	PDFForm     string  `mapstructure:"pdf_form" yaml:"pdf_form" json:"pdf_form"`
	PDFScale    float64 `mapstructure:"pdf_scale" yaml:"pdf_scale" json:"pdf_scale"`
}

// ServerConfig contains HTTP server settings. ScansPerMinute and
// MaxDailyUploadMB limit each client's use of the processing endpoint; zero
// disables the respective limit.
type ServerConfig struct {
	Host             string `mapstructure:"host" yaml:"host" json:"host"`
	Port             int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin       string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB      int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec       int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout  int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	ScansPerMinute   int    `mapstructure:"scans_per_minute" yaml:"scans_per_minute" json:"scans_per_minute"`
	MaxDailyUploadMB int    `mapstructure:"max_daily_upload_mb" yaml:"max_daily_upload_mb" json:"max_daily_upload_mb"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	det := detector.DefaultConfig()
	enh := enhance.DefaultConfig()
	pdf := export.DefaultPDFConfig()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Pipeline: PipelineConfig{
			AutoCrop: true,
			Deskew:   true,
			Mode:     enhance.ModeScan.String(),
			Detector: DetectorConfig{
				MinAreaRatio:  det.MinAreaRatio,
				MaxProcHeight: det.MaxProcHeight,
				BlurRadius:    det.BlurRadius,
				ApproxEpsilon: det.ApproxEpsilon,
			},
			Enhance: EnhanceConfig{
				ClipLimit:         enh.ClipLimit,
				HighContrastClip:  enh.HighContrastClip,
				TileGrid:          enh.TileGrid,
				BilateralDiameter: enh.BilateralDiameter,
				ThresholdBlock:    enh.ThresholdBlock,
				ThresholdC:        enh.ThresholdC,
			},
		},
		Output: OutputConfig{
			Format:      "png",
			JPEGQuality: 95,
			PDFForm:     pdf.Form,
			PDFScale:    pdf.Scale,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if _, err := enhance.ParseMode(c.Pipeline.Mode); err != nil {
		return fmt.Errorf("invalid enhancement mode: %w", err)
	}

	validFormats := []string{"png", "jpg", "jpeg", "pdf"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("invalid jpeg quality: %d (must be 1-100)", c.Output.JPEGQuality)
	}
	if c.Output.PDFScale <= 0 || c.Output.PDFScale > 1 {
		return fmt.Errorf("invalid pdf scale: %g (must be in (0, 1])", c.Output.PDFScale)
	}

	d := c.Pipeline.Detector
	if d.MinAreaRatio < 0 || d.MinAreaRatio > 1 {
		return fmt.Errorf("invalid min area ratio: %g (must be in [0, 1])", d.MinAreaRatio)
	}
	if d.MaxProcHeight < 0 {
		return fmt.Errorf("invalid max processing height: %d", d.MaxProcHeight)
	}

	e := c.Pipeline.Enhance
	if e.ThresholdBlock < 0 {
		return fmt.Errorf("invalid threshold block size: %d", e.ThresholdBlock)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("invalid max upload size: %d MB", c.Server.MaxUploadMB)
	}
	if c.Server.ScansPerMinute < 0 {
		return fmt.Errorf("invalid scans per minute: %d", c.Server.ScansPerMinute)
	}
	if c.Server.MaxDailyUploadMB < 0 {
		return fmt.Errorf("invalid max daily upload size: %d MB", c.Server.MaxDailyUploadMB)
	}
	return nil
}

// PipelineOptions converts the loaded settings into a runnable pipeline
// configuration. Component fields left at zero fall back to their defaults.
func (c *Config) PipelineOptions() (pipeline.Config, error) {
	mode, err := enhance.ParseMode(c.Pipeline.Mode)
	if err != nil {
		return pipeline.Config{}, err
	}

	det := detector.DefaultConfig()
	det.MinAreaRatio = c.Pipeline.Detector.MinAreaRatio
	det.MaxProcHeight = c.Pipeline.Detector.MaxProcHeight
	det.BlurRadius = c.Pipeline.Detector.BlurRadius
	det.ApproxEpsilon = c.Pipeline.Detector.ApproxEpsilon

	return pipeline.Config{
		AutoCrop: c.Pipeline.AutoCrop,
		Deskew:   c.Pipeline.Deskew,
		Mode:     mode,
		Detector: det,
		Enhance: enhance.Config{
			ClipLimit:         c.Pipeline.Enhance.ClipLimit,
			HighContrastClip:  c.Pipeline.Enhance.HighContrastClip,
			TileGrid:          c.Pipeline.Enhance.TileGrid,
			BilateralDiameter: c.Pipeline.Enhance.BilateralDiameter,
			ThresholdBlock:    c.Pipeline.Enhance.ThresholdBlock,
			ThresholdC:        c.Pipeline.Enhance.ThresholdC,
		},
	}, nil
}

// PDFOptions converts the output settings into a PDF export configuration.
func (c *Config) PDFOptions() export.PDFConfig {
	return export.PDFConfig{Form: c.Output.PDFForm, Scale: c.Output.PDFScale}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

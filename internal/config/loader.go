package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "snapscan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "SNAPSCAN"
)

// Loader handles loading configuration from files, environment variables, and
// defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a configuration loader on the global viper instance so
// cobra flag bindings are honored.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWith creates a loader on a dedicated viper instance, useful for
// tests that must not share global state.
func NewLoaderWith(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load loads configuration from the standard search paths, environment
// variables, and defaults. A missing config file is not an error.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshalAndValidate()
}

// LoadWithFile loads configuration from a specific file path. An empty path
// falls back to the standard search.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}
	return l.unmarshalAndValidate()
}

func (l *Loader) unmarshalAndValidate() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// GetViper returns the underlying viper instance for flag binding.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}
	l.v.AddConfigPath("/etc/snapscan")
	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "snapscan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "snapscan"))
	}
}

// setupEnvironmentVariables configures environment variable handling, so for
// example SNAPSCAN_PIPELINE_MODE overrides pipeline.mode.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("pipeline.auto_crop", defaults.Pipeline.AutoCrop)
	l.v.SetDefault("pipeline.deskew", defaults.Pipeline.Deskew)
	l.v.SetDefault("pipeline.mode", defaults.Pipeline.Mode)

	l.v.SetDefault("pipeline.detector.min_area_ratio", defaults.Pipeline.Detector.MinAreaRatio)
	l.v.SetDefault("pipeline.detector.max_proc_height", defaults.Pipeline.Detector.MaxProcHeight)
	l.v.SetDefault("pipeline.detector.blur_radius", defaults.Pipeline.Detector.BlurRadius)
	l.v.SetDefault("pipeline.detector.approx_epsilon", defaults.Pipeline.Detector.ApproxEpsilon)

	l.v.SetDefault("pipeline.enhance.clip_limit", defaults.Pipeline.Enhance.ClipLimit)
	l.v.SetDefault("pipeline.enhance.high_contrast_clip", defaults.Pipeline.Enhance.HighContrastClip)
	l.v.SetDefault("pipeline.enhance.tile_grid", defaults.Pipeline.Enhance.TileGrid)
	l.v.SetDefault("pipeline.enhance.bilateral_diameter", defaults.Pipeline.Enhance.BilateralDiameter)
	l.v.SetDefault("pipeline.enhance.threshold_block", defaults.Pipeline.Enhance.ThresholdBlock)
	l.v.SetDefault("pipeline.enhance.threshold_c", defaults.Pipeline.Enhance.ThresholdC)

	l.v.SetDefault("output.format", defaults.Output.Format)
	l.v.SetDefault("output.jpeg_quality", defaults.Output.JPEGQuality)
	l.v.SetDefault("output.pdf_form", defaults.Output.PDFForm)
	l.v.SetDefault("output.pdf_scale", defaults.Output.PDFScale)

	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.cors_origin", defaults.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", defaults.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", defaults.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)
	l.v.SetDefault("server.scans_per_minute", defaults.Server.ScansPerMinute)
	l.v.SetDefault("server.max_daily_upload_mb", defaults.Server.MaxDailyUploadMB)
}

// GenerateDefaultConfigFile writes a config file populated with the default
// settings, ready for editing.
func GenerateDefaultConfigFile(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	defaults := DefaultConfig()
	data, err := yaml.Marshal(&defaults)
	if err != nil {
		return fmt.Errorf("error marshaling default config: %w", err)
	}
	return os.WriteFile(filename, data, 0o644) //nolint:gosec // G306: user-editable config file
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home, filepath.Join(home, ".config", "snapscan"))
	}
	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "snapscan"))
	}
	return append(paths, "/etc/snapscan")
}

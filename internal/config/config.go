package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Defaults applied by the Get* accessors when a field is omitted.
const (
	DefaultScene       = "default"
	DefaultTraceDir    = "."
	DefaultReportDir   = "."
	DefaultFrameWidth  = 64
	DefaultFrameHeight = 48
	DefaultFrames      = 120
)

// maxFrameDimension bounds the software framebuffer.
const maxFrameDimension = 4096

// Config is the scenetrace configuration. Every field is optional; the Get*
// methods supply defaults, so a partial or empty file is valid.
type Config struct {
	// Scene names the trace and report files.
	Scene *string `json:"scene,omitempty"`

	// Output locations
	TraceDir      *string `json:"trace_dir,omitempty"`
	ReportDir     *string `json:"report_dir,omitempty"`
	DatabasePath  *string `json:"database_path,omitempty"`   // empty disables run history
	DebugFrameDir *string `json:"debug_frame_dir,omitempty"` // empty disables debug frames

	// Report charts
	ChartPNG  *bool `json:"chart_png,omitempty"`
	ChartHTML *bool `json:"chart_html,omitempty"`

	// Framebuffer and capture length for the built-in scene
	FrameWidth  *int `json:"frame_width,omitempty"`
	FrameHeight *int `json:"frame_height,omitempty"`
	Frames      *int `json:"frames,omitempty"`
}

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// LoadConfig loads a Config from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file fall back to their defaults.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	// The scene name becomes part of file names.
	if c.Scene != nil {
		if *c.Scene == "" {
			return fmt.Errorf("scene must not be empty")
		}
		if strings.ContainsAny(*c.Scene, `/\`) || *c.Scene == "." || *c.Scene == ".." {
			return fmt.Errorf("scene %q must not contain path separators", *c.Scene)
		}
	}

	if c.FrameWidth != nil && (*c.FrameWidth <= 0 || *c.FrameWidth > maxFrameDimension) {
		return fmt.Errorf("frame_width must be between 1 and %d, got %d", maxFrameDimension, *c.FrameWidth)
	}
	if c.FrameHeight != nil && (*c.FrameHeight <= 0 || *c.FrameHeight > maxFrameDimension) {
		return fmt.Errorf("frame_height must be between 1 and %d, got %d", maxFrameDimension, *c.FrameHeight)
	}

	if c.Frames != nil && *c.Frames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", *c.Frames)
	}

	return nil
}

// GetScene returns the scene name or the default.
func (c *Config) GetScene() string {
	if c.Scene == nil {
		return DefaultScene
	}
	return *c.Scene
}

// GetTraceDir returns the trace directory or the default.
func (c *Config) GetTraceDir() string {
	if c.TraceDir == nil || *c.TraceDir == "" {
		return DefaultTraceDir
	}
	return *c.TraceDir
}

// GetReportDir returns the report directory or the default.
func (c *Config) GetReportDir() string {
	if c.ReportDir == nil || *c.ReportDir == "" {
		return DefaultReportDir
	}
	return *c.ReportDir
}

// GetDatabasePath returns the run history database path, or "" when
// run history is disabled.
func (c *Config) GetDatabasePath() string {
	if c.DatabasePath == nil {
		return ""
	}
	return *c.DatabasePath
}

// GetDebugFrameDir returns the debug frame directory, or "" when disabled.
func (c *Config) GetDebugFrameDir() string {
	if c.DebugFrameDir == nil {
		return ""
	}
	return *c.DebugFrameDir
}

// GetChartPNG reports whether a PNG chart is written with each report.
func (c *Config) GetChartPNG() bool {
	if c.ChartPNG == nil {
		return false
	}
	return *c.ChartPNG
}

// GetChartHTML reports whether an HTML chart is written with each report.
func (c *Config) GetChartHTML() bool {
	if c.ChartHTML == nil {
		return false
	}
	return *c.ChartHTML
}

// GetFrameWidth returns the framebuffer width in pixels or the default.
func (c *Config) GetFrameWidth() int {
	if c.FrameWidth == nil {
		return DefaultFrameWidth
	}
	return *c.FrameWidth
}

// GetFrameHeight returns the framebuffer height in pixels or the default.
func (c *Config) GetFrameHeight() int {
	if c.FrameHeight == nil {
		return DefaultFrameHeight
	}
	return *c.FrameHeight
}

// GetFrames returns the number of frames to capture.
func (c *Config) GetFrames() int {
	if c.Frames == nil {
		return DefaultFrames
	}
	return *c.Frames
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical metrics defaults file.
// This is the single source of truth for all default analysis values.
const DefaultConfigPath = "config/metrics.defaults.json"

// MetricsConfig represents the root configuration for the loader and the
// metrics engine. Fields are pointers so a partial JSON file only
// overrides what it names; the Get* methods supply fallback defaults.
type MetricsConfig struct {
	// Feed params
	FPS            *float64 `json:"fps,omitempty"`
	ChunkSize      *int     `json:"chunk_size,omitempty"`
	ClockTolerance *float64 `json:"clock_tolerance,omitempty"` // fraction of a frame interval
	PitchBuffer    *float64 `json:"pitch_buffer,omitempty"`    // metres beyond the touchline

	// Metrics params
	WindowSeconds   *float64  `json:"window_seconds,omitempty"`
	Smoothing       *bool     `json:"smoothing,omitempty"`
	SmoothingWindow *int      `json:"smoothing_window,omitempty"` // frames, odd
	SpeedBands      []float64 `json:"speed_bands,omitempty"`      // band edges in m/s, ascending
	MinSprintSpeed  *float64  `json:"min_sprint_speed,omitempty"` // m/s
	MinAccel        *float64  `json:"min_accel,omitempty"`        // m/s^2
	SparsePolicy    *string   `json:"sparse_policy,omitempty"`    // "zero" or "error"
}

// EmptyMetricsConfig returns a MetricsConfig with all fields set to nil.
// Use LoadMetricsConfig to load actual values from the defaults file.
func EmptyMetricsConfig() *MetricsConfig {
	return &MetricsConfig{}
}

// LoadMetricsConfig loads a MetricsConfig from a JSON file. The file is
// validated to ensure it has a .json extension and is under the max file
// size. Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadMetricsConfig(path string) (*MetricsConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyMetricsConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical metrics defaults from
// DefaultConfigPath. It searches for the file in the current directory
// and common parent directories. Panics if the file cannot be loaded,
// intended for test setup.
func MustLoadDefaultConfig() *MetricsConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadMetricsConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *MetricsConfig) Validate() error {
	if c.FPS != nil && *c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %f", *c.FPS)
	}
	if c.ChunkSize != nil && *c.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be at least 1, got %d", *c.ChunkSize)
	}
	if c.WindowSeconds != nil && *c.WindowSeconds <= 0 {
		return fmt.Errorf("window_seconds must be positive, got %f", *c.WindowSeconds)
	}
	if c.SmoothingWindow != nil {
		if *c.SmoothingWindow < 1 || *c.SmoothingWindow%2 == 0 {
			return fmt.Errorf("smoothing_window must be a positive odd frame count, got %d", *c.SmoothingWindow)
		}
	}
	for i := 1; i < len(c.SpeedBands); i++ {
		if c.SpeedBands[i] <= c.SpeedBands[i-1] {
			return fmt.Errorf("speed_bands must be strictly ascending, got %v", c.SpeedBands)
		}
	}
	if c.SparsePolicy != nil {
		if *c.SparsePolicy != "zero" && *c.SparsePolicy != "error" {
			return fmt.Errorf("sparse_policy must be \"zero\" or \"error\", got %q", *c.SparsePolicy)
		}
	}
	return nil
}

// GetFPS returns the fps value or the default.
func (c *MetricsConfig) GetFPS() float64 {
	if c.FPS == nil {
		return 25.0 // Second Spectrum feed rate
	}
	return *c.FPS
}

// GetChunkSize returns the chunk_size value or the default.
func (c *MetricsConfig) GetChunkSize() int {
	if c.ChunkSize == nil {
		return 100000
	}
	return *c.ChunkSize
}

// GetClockTolerance returns the clock_tolerance value or the default.
func (c *MetricsConfig) GetClockTolerance() float64 {
	if c.ClockTolerance == nil {
		return 1.5
	}
	return *c.ClockTolerance
}

// GetPitchBuffer returns the pitch_buffer value or the default.
func (c *MetricsConfig) GetPitchBuffer() float64 {
	if c.PitchBuffer == nil {
		return 3.0
	}
	return *c.PitchBuffer
}

// GetWindowSeconds returns the window_seconds value or the default.
func (c *MetricsConfig) GetWindowSeconds() float64 {
	if c.WindowSeconds == nil {
		return 300.0 // five-minute buckets
	}
	return *c.WindowSeconds
}

// GetSmoothing returns the smoothing value or the default.
func (c *MetricsConfig) GetSmoothing() bool {
	if c.Smoothing == nil {
		return false
	}
	return *c.Smoothing
}

// GetSmoothingWindow returns the smoothing_window value or the default.
func (c *MetricsConfig) GetSmoothingWindow() int {
	if c.SmoothingWindow == nil {
		return 5
	}
	return *c.SmoothingWindow
}

// GetSpeedBands returns the speed_bands edges or the default zones.
// Edges are lower bounds; the last band is open-ended.
func (c *MetricsConfig) GetSpeedBands() []float64 {
	if len(c.SpeedBands) == 0 {
		return []float64{0, 4, 5.5, 7}
	}
	return c.SpeedBands
}

// GetMinSprintSpeed returns the min_sprint_speed value or the default.
func (c *MetricsConfig) GetMinSprintSpeed() float64 {
	if c.MinSprintSpeed == nil {
		return 5.5 // ~19.8 km/h
	}
	return *c.MinSprintSpeed
}

// GetMinAccel returns the min_accel value or the default.
func (c *MetricsConfig) GetMinAccel() float64 {
	if c.MinAccel == nil {
		return 3.0
	}
	return *c.MinAccel
}

// GetSparsePolicy returns the sparse_policy value or the default.
func (c *MetricsConfig) GetSparsePolicy() string {
	if c.SparsePolicy == nil {
		return "zero"
	}
	return *c.SparsePolicy
}

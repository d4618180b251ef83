package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmptyMetricsConfigDefaults(t *testing.T) {
	cfg := EmptyMetricsConfig()

	// All getters should fall back to defaults on an empty config
	if cfg.GetFPS() != 25.0 {
		t.Errorf("GetFPS() = %f, want 25.0", cfg.GetFPS())
	}
	if cfg.GetChunkSize() != 100000 {
		t.Errorf("GetChunkSize() = %d, want 100000", cfg.GetChunkSize())
	}
	if cfg.GetWindowSeconds() != 300.0 {
		t.Errorf("GetWindowSeconds() = %f, want 300.0", cfg.GetWindowSeconds())
	}
	if cfg.GetSmoothing() != false {
		t.Errorf("GetSmoothing() = %v, want false", cfg.GetSmoothing())
	}
	if cfg.GetSmoothingWindow() != 5 {
		t.Errorf("GetSmoothingWindow() = %d, want 5", cfg.GetSmoothingWindow())
	}
	if cfg.GetMinSprintSpeed() != 5.5 {
		t.Errorf("GetMinSprintSpeed() = %f, want 5.5", cfg.GetMinSprintSpeed())
	}
	if cfg.GetMinAccel() != 3.0 {
		t.Errorf("GetMinAccel() = %f, want 3.0", cfg.GetMinAccel())
	}
	if cfg.GetSparsePolicy() != "zero" {
		t.Errorf("GetSparsePolicy() = %q, want \"zero\"", cfg.GetSparsePolicy())
	}
	bands := cfg.GetSpeedBands()
	if len(bands) != 4 || bands[0] != 0 || bands[3] != 7 {
		t.Errorf("GetSpeedBands() = %v, want [0 4 5.5 7]", bands)
	}
}

func TestLoadMetricsConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "fps": 10.0,
  "chunk_size": 500,
  "window_seconds": 60.0,
  "smoothing": true,
  "smoothing_window": 3,
  "speed_bands": [0, 2, 4],
  "min_sprint_speed": 4.0,
  "min_accel": 2.0,
  "sparse_policy": "error"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadMetricsConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.FPS == nil || *cfg.FPS != 10.0 {
		t.Errorf("Expected FPS 10.0, got %v", cfg.FPS)
	}
	if cfg.ChunkSize == nil || *cfg.ChunkSize != 500 {
		t.Errorf("Expected ChunkSize 500, got %v", cfg.ChunkSize)
	}
	if cfg.GetWindowSeconds() != 60.0 {
		t.Errorf("GetWindowSeconds() = %f, want 60.0", cfg.GetWindowSeconds())
	}
	if !cfg.GetSmoothing() {
		t.Error("GetSmoothing() = false, want true")
	}
	if cfg.GetSparsePolicy() != "error" {
		t.Errorf("GetSparsePolicy() = %q, want \"error\"", cfg.GetSparsePolicy())
	}
	if got := cfg.GetSpeedBands(); len(got) != 3 || got[2] != 4 {
		t.Errorf("GetSpeedBands() = %v, want [0 2 4]", got)
	}
}

func TestLoadMetricsConfigPartial(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")

	// Only override one field; everything else falls back to defaults
	if err := os.WriteFile(configPath, []byte(`{"window_seconds": 120.0}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadMetricsConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.GetWindowSeconds() != 120.0 {
		t.Errorf("GetWindowSeconds() = %f, want 120.0", cfg.GetWindowSeconds())
	}
	if cfg.GetFPS() != 25.0 {
		t.Errorf("GetFPS() = %f, want default 25.0", cfg.GetFPS())
	}
}

func TestLoadMetricsConfigMissing(t *testing.T) {
	_, err := LoadMetricsConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadMetricsConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	invalidJSON := `{
  "fps": "invalid"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadMetricsConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*MetricsConfig)
		wantErr bool
	}{
		{"empty is valid", func(c *MetricsConfig) {}, false},
		{"negative fps", func(c *MetricsConfig) { v := -1.0; c.FPS = &v }, true},
		{"zero window", func(c *MetricsConfig) { v := 0.0; c.WindowSeconds = &v }, true},
		{"even smoothing window", func(c *MetricsConfig) { v := 4; c.SmoothingWindow = &v }, true},
		{"descending bands", func(c *MetricsConfig) { c.SpeedBands = []float64{4, 2} }, true},
		{"unknown sparse policy", func(c *MetricsConfig) { v := "skip"; c.SparsePolicy = &v }, true},
		{"valid overrides", func(c *MetricsConfig) {
			v := 50.0
			c.FPS = &v
			c.SpeedBands = []float64{0, 3, 6}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := EmptyMetricsConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigFileExtensionCheck(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(`{}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := LoadMetricsConfig(configPath); err == nil {
		t.Error("Expected error for non-.json extension, got nil")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{
			name:        "default configuration is valid",
			mutate:      func(*Config) {},
			expectError: false,
		},
		{
			name: "empty backend URL",
			mutate: func(c *Config) {
				c.Backend.BaseURL = ""
			},
			expectError: true,
		},
		{
			name: "empty language",
			mutate: func(c *Config) {
				c.Backend.Language = ""
			},
			expectError: true,
		},
		{
			name: "zero backend timeout",
			mutate: func(c *Config) {
				c.Backend.Timeout = 0
			},
			expectError: true,
		},
		{
			name: "empty capture command",
			mutate: func(c *Config) {
				c.Capture.Command = nil
			},
			expectError: true,
		},
		{
			name: "negative min recording time",
			mutate: func(c *Config) {
				c.Capture.MinRecordingMs = -1
			},
			expectError: true,
		},
		{
			name: "max recording not above min",
			mutate: func(c *Config) {
				c.Capture.MaxRecordingMs = c.Capture.MinRecordingMs
			},
			expectError: true,
		},
		{
			name: "noise gate out of range",
			mutate: func(c *Config) {
				c.Capture.NoiseGate = 1.0
			},
			expectError: true,
		},
		{
			name: "zero char interval",
			mutate: func(c *Config) {
				c.Presentation.CharIntervalMs = 0
			},
			expectError: true,
		},
		{
			name: "monitor enabled without port",
			mutate: func(c *Config) {
				c.Monitor.Enabled = true
				c.Monitor.Port = 0
			},
			expectError: true,
		},
		{
			name: "monitor disabled ignores port",
			mutate: func(c *Config) {
				c.Monitor.Enabled = false
				c.Monitor.Port = 0
			},
			expectError: false,
		},
		{
			name: "invalid log level",
			mutate: func(c *Config) {
				c.Logging.Level = "verbose"
			},
			expectError: true,
		},
		{
			name: "invalid log format",
			mutate: func(c *Config) {
				c.Logging.Format = "xml"
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected valid config, got error: %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
backend:
  base_url: "http://backend:8000"
  language: "es"
  timeout: 30
capture:
  min_recording_ms: 500
  max_recording_ms: 20000
presentation:
  char_interval_ms: 25
logging:
  level: "debug"
  format: "json"
`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Backend.BaseURL != "http://backend:8000" {
		t.Errorf("Expected backend URL from file, got %s", cfg.Backend.BaseURL)
	}

	if cfg.Presentation.CharIntervalMs != 25 {
		t.Errorf("Expected char interval 25, got %d", cfg.Presentation.CharIntervalMs)
	}

	// Fields omitted in the file keep their defaults
	if cfg.Capture.NoiseGate != 0.05 {
		t.Errorf("Expected default noise gate 0.05, got %f", cfg.Capture.NoiseGate)
	}

	if cfg.Presentation.FadeMs != 2000 {
		t.Errorf("Expected default fade 2000ms, got %d", cfg.Presentation.FadeMs)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("backend: [not a map"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()

	if cfg.Capture.GetMinRecordingDuration() != 500*time.Millisecond {
		t.Errorf("Expected 500ms minimum recording, got %v", cfg.Capture.GetMinRecordingDuration())
	}

	if cfg.Backend.GetTimeoutDuration() != 60*time.Second {
		t.Errorf("Expected 60s backend timeout, got %v", cfg.Backend.GetTimeoutDuration())
	}

	if cfg.Presentation.GetCharInterval() != 30*time.Millisecond {
		t.Errorf("Expected 30ms char interval, got %v", cfg.Presentation.GetCharInterval())
	}

	if cfg.Presentation.GetFadeDuration() != 2*time.Second {
		t.Errorf("Expected 2s fade, got %v", cfg.Presentation.GetFadeDuration())
	}

	if cfg.Presentation.GetMessagePause() != 2*time.Second {
		t.Errorf("Expected 2s message pause, got %v", cfg.Presentation.GetMessagePause())
	}
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete client configuration
type Config struct {
	Backend      BackendConfig      `yaml:"backend"`
	Capture      CaptureConfig      `yaml:"capture"`
	Playback     PlaybackConfig     `yaml:"playback"`
	Presentation PresentationConfig `yaml:"presentation"`
	Monitor      MonitorConfig      `yaml:"monitor"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// BackendConfig contains remote voice-processing API configuration
type BackendConfig struct {
	BaseURL  string `yaml:"base_url"`
	Language string `yaml:"language"`
	Timeout  int    `yaml:"timeout"` // seconds
}

// CaptureConfig contains microphone capture parameters
type CaptureConfig struct {
	Command          []string `yaml:"command"` // recorder process, e.g. [arecord, -f, S16_LE, -r, "16000", -t, raw]
	Format           string   `yaml:"format"`  // container/mime the recorder produces
	SampleRate       int      `yaml:"sample_rate"`
	Channels         int      `yaml:"channels"`
	MinRecordingMs   int      `yaml:"min_recording_ms"`
	MaxRecordingMs   int      `yaml:"max_recording_ms"`
	NoiseGate        float64  `yaml:"noise_gate"` // 0..1 input-level threshold for visualization
	TargetSampleRate int      `yaml:"target_sample_rate"`
}

// PlaybackConfig contains response playback parameters
type PlaybackConfig struct {
	Command        []string `yaml:"command"`          // player process, e.g. [aplay, -q]
	AnalysisTickMs int      `yaml:"analysis_tick_ms"` // cadence of the amplitude loop
}

// PresentationConfig contains typewriter display timing
type PresentationConfig struct {
	CharIntervalMs int `yaml:"char_interval_ms"` // per-character reveal delay
	FadeMs         int `yaml:"fade_ms"`          // retired-message fade duration
	MessagePauseMs int `yaml:"message_pause_ms"` // pause after a fully shown message
}

// MonitorConfig contains the optional local observability endpoint
type MonitorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:  "http://localhost:8000",
			Language: "es",
			Timeout:  60,
		},
		Capture: CaptureConfig{
			Command:          []string{"arecord", "-q", "-f", "S16_LE", "-c", "1", "-r", "16000", "-t", "raw"},
			Format:           "audio/l16",
			SampleRate:       16000,
			Channels:         1,
			MinRecordingMs:   500,
			MaxRecordingMs:   30000,
			NoiseGate:        0.05,
			TargetSampleRate: 16000,
		},
		Playback: PlaybackConfig{
			Command:        []string{"aplay", "-q"},
			AnalysisTickMs: 16,
		},
		Presentation: PresentationConfig{
			CharIntervalMs: 30,
			FadeMs:         2000,
			MessagePauseMs: 2000,
		},
		Monitor: MonitorConfig{
			Enabled: false,
			Address: "127.0.0.1",
			Port:    9090,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads and parses the configuration file, filling omitted fields
// from defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Backend.Validate(); err != nil {
		return fmt.Errorf("backend config: %w", err)
	}

	if err := c.Capture.Validate(); err != nil {
		return fmt.Errorf("capture config: %w", err)
	}

	if err := c.Playback.Validate(); err != nil {
		return fmt.Errorf("playback config: %w", err)
	}

	if err := c.Presentation.Validate(); err != nil {
		return fmt.Errorf("presentation config: %w", err)
	}

	if err := c.Monitor.Validate(); err != nil {
		return fmt.Errorf("monitor config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates backend configuration
func (b *BackendConfig) Validate() error {
	if b.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}

	if b.Language == "" {
		return fmt.Errorf("language cannot be empty")
	}

	if b.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", b.Timeout)
	}

	return nil
}

// Validate validates capture configuration
func (c *CaptureConfig) Validate() error {
	if len(c.Command) == 0 {
		return fmt.Errorf("command cannot be empty")
	}

	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}

	if c.Channels < 1 {
		return fmt.Errorf("channels must be at least 1, got %d", c.Channels)
	}

	if c.MinRecordingMs < 0 {
		return fmt.Errorf("min_recording_ms cannot be negative, got %d", c.MinRecordingMs)
	}

	if c.MaxRecordingMs <= c.MinRecordingMs {
		return fmt.Errorf("max_recording_ms (%d) must be greater than min_recording_ms (%d)",
			c.MaxRecordingMs, c.MinRecordingMs)
	}

	if c.NoiseGate < 0 || c.NoiseGate >= 1 {
		return fmt.Errorf("noise_gate must be between 0 and 1 (exclusive), got %f", c.NoiseGate)
	}

	if c.TargetSampleRate <= 0 {
		return fmt.Errorf("target_sample_rate must be positive, got %d", c.TargetSampleRate)
	}

	return nil
}

// Validate validates playback configuration
func (p *PlaybackConfig) Validate() error {
	if len(p.Command) == 0 {
		return fmt.Errorf("command cannot be empty")
	}

	if p.AnalysisTickMs < 1 {
		return fmt.Errorf("analysis_tick_ms must be at least 1, got %d", p.AnalysisTickMs)
	}

	return nil
}

// Validate validates presentation configuration
func (p *PresentationConfig) Validate() error {
	if p.CharIntervalMs < 1 {
		return fmt.Errorf("char_interval_ms must be at least 1, got %d", p.CharIntervalMs)
	}

	if p.FadeMs < 0 {
		return fmt.Errorf("fade_ms cannot be negative, got %d", p.FadeMs)
	}

	if p.MessagePauseMs < 0 {
		return fmt.Errorf("message_pause_ms cannot be negative, got %d", p.MessagePauseMs)
	}

	return nil
}

// Validate validates monitor configuration
func (m *MonitorConfig) Validate() error {
	if m.Enabled {
		if m.Port < 1 || m.Port > 65535 {
			return fmt.Errorf("port must be between 1 and 65535, got %d", m.Port)
		}

		if m.Address == "" {
			return fmt.Errorf("address cannot be empty when monitor is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetTimeoutDuration returns the backend request timeout as a time.Duration
func (b *BackendConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(b.Timeout) * time.Second
}

// GetMinRecordingDuration returns the minimum recording time as a time.Duration
func (c *CaptureConfig) GetMinRecordingDuration() time.Duration {
	return time.Duration(c.MinRecordingMs) * time.Millisecond
}

// GetMaxRecordingDuration returns the maximum recording time as a time.Duration
func (c *CaptureConfig) GetMaxRecordingDuration() time.Duration {
	return time.Duration(c.MaxRecordingMs) * time.Millisecond
}

// GetAnalysisTick returns the playback analysis cadence as a time.Duration
func (p *PlaybackConfig) GetAnalysisTick() time.Duration {
	return time.Duration(p.AnalysisTickMs) * time.Millisecond
}

// GetCharInterval returns the typewriter delay as a time.Duration
func (p *PresentationConfig) GetCharInterval() time.Duration {
	return time.Duration(p.CharIntervalMs) * time.Millisecond
}

// GetFadeDuration returns the retired-message fade time as a time.Duration
func (p *PresentationConfig) GetFadeDuration() time.Duration {
	return time.Duration(p.FadeMs) * time.Millisecond
}

// GetMessagePause returns the post-message pause as a time.Duration
func (p *PresentationConfig) GetMessagePause() time.Duration {
	return time.Duration(p.MessagePauseMs) * time.Millisecond
}

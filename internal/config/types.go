package config

import "time"

// ProfileConfiguration defines the user-configurable settings for procli.
type ProfileConfiguration struct {
	Theme           string       `json:"theme" yaml:"theme"`
	Columns         int          `json:"columns" yaml:"columns"`                   // Max card columns in list mode
	RefreshInterval int          `json:"refresh_interval" yaml:"refresh_interval"` // Sampling cadence in milliseconds
	FrameInterval   int          `json:"frame_interval" yaml:"frame_interval"`     // Render tick in milliseconds
	HistoryLength   int          `json:"history_length" yaml:"history_length"`     // Samples kept per process
	GracePeriod     int          `json:"grace_period" yaml:"grace_period"`         // Exited retention in milliseconds
	ShowHost        bool         `json:"show_host" yaml:"show_host"`
	EnableGPU       bool         `json:"enable_gpu" yaml:"enable_gpu"`
	Logger          LoggerConfig `json:"logger" yaml:"logger"`
}

// LoggerConfig controls the slog handler built by the logger package.
type LoggerConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
	Output string `json:"output" yaml:"output"` // "stderr", "stdout" or a file path
}

// DefaultConfig returns the hardcoded default configuration.
func DefaultConfig() *ProfileConfiguration {
	return &ProfileConfiguration{
		Theme:           "dark",
		Columns:         2,
		RefreshInterval: 1000,
		FrameInterval:   250,
		HistoryLength:   120,
		GracePeriod:     10000,
		ShowHost:        true,
		EnableGPU:       true,
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "procli.log",
		},
	}
}

func (c *ProfileConfiguration) Interval() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Millisecond
}

func (c *ProfileConfiguration) Frame() time.Duration {
	return time.Duration(c.FrameInterval) * time.Millisecond
}

func (c *ProfileConfiguration) Grace() time.Duration {
	return time.Duration(c.GracePeriod) * time.Millisecond
}

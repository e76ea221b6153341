// internal/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up by LoadDefaultConfig.
const DefaultFile = "procli.json"

var themes = map[string]bool{"dark": true, "light": true, "mono": true}

// LoadConfig loads and validates configuration from the specified file.
// Files ending in .yaml or .yml are parsed as YAML, everything else as JSON.
// A missing file yields the default configuration.
func LoadConfig(path string) (*ProfileConfiguration, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("read config %s: %w", path, err)
	}

	// Start from defaults so omitted keys keep sane values
	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return DefaultConfig(), err
	}

	return config, nil
}

// LoadDefaultConfig loads configuration from "procli.json" in the current
// working directory, then next to the executable.
func LoadDefaultConfig() (*ProfileConfiguration, string, error) {
	if _, err := os.Stat(DefaultFile); err == nil {
		cfg, err := LoadConfig(DefaultFile)
		return cfg, DefaultFile, err
	}

	exePath, err := os.Executable()
	if err == nil {
		configPath := filepath.Join(filepath.Dir(exePath), DefaultFile)
		if _, err := os.Stat(configPath); err == nil {
			cfg, err := LoadConfig(configPath)
			return cfg, configPath, err
		}
	}

	// No config file found, return defaults
	return DefaultConfig(), "", nil
}

// SaveConfig writes configuration to the specified file.
func SaveConfig(config *ProfileConfiguration, path string) error {
	if err := config.Validate(); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects values the rest of the program cannot work with.
func (c *ProfileConfiguration) Validate() error {
	var errs []error
	if !themes[c.Theme] {
		errs = append(errs, fmt.Errorf("unknown theme %q", c.Theme))
	}
	if c.Columns < 1 || c.Columns > 8 {
		errs = append(errs, fmt.Errorf("columns must be within 1..8, got %d", c.Columns))
	}
	if c.RefreshInterval < 100 {
		errs = append(errs, fmt.Errorf("refresh_interval must be at least 100ms, got %d", c.RefreshInterval))
	}
	if c.FrameInterval < 16 {
		errs = append(errs, fmt.Errorf("frame_interval must be at least 16ms, got %d", c.FrameInterval))
	}
	if c.HistoryLength < 2 {
		errs = append(errs, fmt.Errorf("history_length must be at least 2, got %d", c.HistoryLength))
	}
	if c.GracePeriod < 0 {
		errs = append(errs, fmt.Errorf("grace_period must not be negative, got %d", c.GracePeriod))
	}
	switch strings.ToLower(c.Logger.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Logger.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ApplyEnvOverrides applies PROCLI_* environment variables on top of cfg.
// PROCLI_INTERVAL accepts a Go duration ("500ms") or plain seconds ("2").
func ApplyEnvOverrides(cfg *ProfileConfiguration) {
	if v := os.Getenv("PROCLI_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RefreshInterval = int(d / time.Millisecond)
		} else if secs, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RefreshInterval = int(secs * 1000)
		}
	}
	if v := os.Getenv("PROCLI_LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("PROCLI_LOG"); v != "" {
		cfg.Logger.Output = v
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

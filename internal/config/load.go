package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	if err := applyFlags(cfg); err != nil {
		return nil, err
	}

	if err := validateRatios(cfg.Output.Ratios); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseRatios parses a comma-separated ratio list.
func ParseRatios(s string) ([]float32, error) {
	var out []float32
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 32)
		if err != nil {
			return nil, fmt.Errorf("ratio %q: %w", part, err)
		}
		out = append(out, float32(v))
	}
	if err := validateRatios(out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateRatios(ratios []float32) error {
	if len(ratios) == 0 {
		return errors.New("no LOD ratios configured")
	}
	for _, r := range ratios {
		if r <= 0 || r > 1 {
			return fmt.Errorf("ratio %v out of range (0, 1]", r)
		}
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Lodgen")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Lodgen")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "lodgen")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "lodgen")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

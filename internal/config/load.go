package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "scenetool.yaml"

// Load loads configuration with priority: defaults < file < flags.
// f may be nil when no flags were registered.
func Load(f *Flags) (*Config, error) {
	cfg := Default()

	// explicit path takes priority
	var configPath string
	if f != nil {
		configPath = f.ConfigPath
	}
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	if f != nil {
		applyFlags(cfg, f)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./" + FileName,
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
		return filepath.Join(home, "Library", "Application Support", "Scenepack")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Scenepack")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "scenepack")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "scenepack")
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

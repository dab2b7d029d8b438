package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// EnvBackendURL overrides Backend.URL when set.
const EnvBackendURL = "GARMENT_BACKEND_URL"

// Overrides are explicit values from the command line. Zero values are ignored.
type Overrides struct {
	Debug      bool
	LogFile    string
	BackendURL string
	ModelURL   string
	CacheDir   string
}

// Load loads configuration with priority: defaults < file < environment < overrides.
// An empty path searches the standard locations; a missing file there is not an error.
func Load(path string, ov Overrides) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	if v := os.Getenv(EnvBackendURL); v != "" {
		cfg.Backend.URL = v
	}
	applyOverrides(cfg, ov)

	if cfg.Assets.CacheDir == "" {
		cfg.Assets.CacheDir = CacheDir()
	}
	if cfg.Backend.SessionFile == "" {
		cfg.Backend.SessionFile = filepath.Join(ConfigDir(), "session.json")
	}
	return cfg, nil
}

func applyOverrides(cfg *Config, ov Overrides) {
	if ov.Debug {
		cfg.Logging.Level = "debug"
	}
	if ov.LogFile != "" {
		cfg.Logging.LogFile = ov.LogFile
	}
	if ov.BackendURL != "" {
		cfg.Backend.URL = ov.BackendURL
	}
	if ov.ModelURL != "" {
		cfg.Assets.ModelURL = ov.ModelURL
	}
	if ov.CacheDir != "" {
		cfg.Assets.CacheDir = ov.CacheDir
	}
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./garment.yaml",
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
		return filepath.Join(home, "Library", "Application Support", "Garment")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Garment")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "garment")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "garment")
	}
}

// CacheDir returns the directory for downloaded assets.
func CacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "garment")
	}
	return filepath.Join(os.TempDir(), "garment-cache")
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

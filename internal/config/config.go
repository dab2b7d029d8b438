// Package config handles garment configuration loading and management.
package config

import "time"

// Config holds all settings.
type Config struct {
	Assets   AssetsConfig   `yaml:"assets"`
	Backend  BackendConfig  `yaml:"backend"`
	Designer DesignerConfig `yaml:"designer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AssetsConfig locates the garment model and fabric maps.
type AssetsConfig struct {
	ModelURL string `yaml:"model_url"`
	// SiteURL resolves relative fabric map paths.
	SiteURL      string        `yaml:"site_url"`
	AOMap        string        `yaml:"ao_map"`
	NormalMap    string        `yaml:"normal_map"`
	RoughnessMap string        `yaml:"roughness_map"`
	CacheDir     string        `yaml:"cache_dir"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	MaxUploadPx  int           `yaml:"max_upload_px"`
}

// BackendConfig holds the storefront API settings.
type BackendConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	// PublicBucketURL prefixes uploaded object keys.
	PublicBucketURL string `yaml:"public_bucket_url"`
	SessionFile     string `yaml:"session_file"`
}

// DesignerConfig holds the starting state of a design.
type DesignerConfig struct {
	Color       string  `yaml:"color"`
	LogoScale   float64 `yaml:"logo_scale"`
	LogoOffsetX float64 `yaml:"logo_offset_x"`
	LogoOffsetY float64 `yaml:"logo_offset_y"`
	LogoTarget  string  `yaml:"logo_target"`
	SleeveRatio float64 `yaml:"sleeve_ratio"`
	Epsilon     float64 `yaml:"epsilon"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	// Rotation of LogFile.
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Assets: AssetsConfig{
			ModelURL:     "https://raw.githubusercontent.com/Diego-lg/vite_showcase/6dc603ba0c7e90bdd77f050a7eee4dd3cdaa68a0/public/tshirt.glb",
			SiteURL:      "http://localhost:3000",
			AOMap:        "/assets/tshirt/textures/fabric_167_ambientocclusion-4K.png",
			NormalMap:    "/assets/tshirt/textures/fabric_167_normal-4K.png",
			RoughnessMap: "/assets/tshirt/textures/fabric_167_roughness-4K.png",
			CacheDir:     "",
			FetchTimeout: 30 * time.Second,
			MaxUploadPx:  2048,
		},
		Backend: BackendConfig{
			URL:     "http://localhost:3001/api",
			Timeout: 15 * time.Second,
		},
		Designer: DesignerConfig{
			Color:       "#FFFFFF",
			LogoScale:   0.15,
			LogoOffsetX: 0,
			LogoOffsetY: 0.04,
			LogoTarget:  "front",
			SleeveRatio: 0.3,
			Epsilon:     1e-5,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 14,
			Compress:   true,
		},
	}
}

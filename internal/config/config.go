package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for chatvault. Every component receives
// the slice of it that it needs at construction; nothing reads module-level
// globals.
type Config struct {
	General GeneralConfig `json:"general"`
	Browser BrowserConfig `json:"browser"`
	Capture CaptureConfig `json:"capture"`
	Archive ArchiveConfig `json:"archive"`
	Viewer  ViewerConfig  `json:"viewer"`
}

type GeneralConfig struct {
	DBPath   string `json:"dbPath"`
	LogLevel string `json:"logLevel"`
	LogFile  string `json:"logFile,omitempty"`
}

type BrowserConfig struct {
	ProfileDir string `json:"profileDir"` // Chrome user data dir (persists the login session)
	Headless   bool   `json:"headless"`   // capture needs a visible window for manual login
}

type CaptureConfig struct {
	DashboardURL    string `json:"dashboardUrl"`
	SiteProfile     string `json:"siteProfile,omitempty"` // optional YAML selector profile
	DefaultCount    int    `json:"defaultCount"`
	SearchThreshold int    `json:"searchThreshold"` // directory sizes above this use the search strategy
	ScrollSettleMs  int    `json:"scrollSettleMs"`
	RenderDelayMs   int    `json:"renderDelayMs"`  // wait after opening a conversation
	LoginPollMs     int    `json:"loginPollMs"`    // login-wall re-check interval
	LandmarkWaitMs  int    `json:"landmarkWaitMs"` // bounded wait for the post-login landmark
	KeepAwake       bool   `json:"keepAwake"`
}

type ArchiveConfig struct {
	ImagesDir      string `json:"imagesDir,omitempty"` // default: "<dbPath>-images"
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type ViewerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chatvault"
	}
	return filepath.Join(home, ".chatvault")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.DBPath = ExpandPath(cfg.General.DBPath)
	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Browser.ProfileDir = ExpandPath(cfg.Browser.ProfileDir)
	cfg.Capture.SiteProfile = ExpandPath(cfg.Capture.SiteProfile)
	cfg.Archive.ImagesDir = ExpandPath(cfg.Archive.ImagesDir)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.General.DBPath == "" {
		errs = append(errs, "general.dbPath must not be empty")
	}
	if cfg.Capture.DashboardURL == "" {
		errs = append(errs, "capture.dashboardUrl must not be empty")
	}
	if cfg.Capture.DefaultCount < 1 {
		errs = append(errs, "capture.defaultCount must be >= 1")
	}
	if cfg.Capture.SearchThreshold < 1 {
		errs = append(errs, "capture.searchThreshold must be >= 1")
	}
	if cfg.Capture.ScrollSettleMs < 1 || cfg.Capture.LoginPollMs < 1 {
		errs = append(errs, "capture.scrollSettleMs and capture.loginPollMs must be >= 1")
	}
	if cfg.Archive.TimeoutSeconds < 1 {
		errs = append(errs, "archive.timeoutSeconds must be >= 1")
	}
	if cfg.Viewer.Port < 0 || cfg.Viewer.Port > 65535 {
		errs = append(errs, "viewer.port must be between 0 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ImagesDir resolves the archive directory, defaulting to a sibling of the
// database file so archived images travel with the store.
func (c *Config) ImagesDir() string {
	if c.Archive.ImagesDir != "" {
		return c.Archive.ImagesDir
	}
	return c.General.DBPath + "-images"
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

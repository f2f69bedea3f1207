package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultAPIBaseURL is where the backend listens in local development
	DefaultAPIBaseURL = "http://127.0.0.1:8000"

	configFileName = "config.yaml"
)

// Config represents the client configuration
type Config struct {
	APIBaseURL     string        `yaml:"api_base_url"`
	AuthScheme     string        `yaml:"auth_scheme"` // "Bearer" or "Token" (Django REST Framework)
	RequestTimeout time.Duration `yaml:"request_timeout"`
	DataDir        string        `yaml:"data_dir"`   // token, logs
	ReportDir      string        `yaml:"report_dir"` // downloaded reports, exported charts
	LogLevel       string        `yaml:"log_level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	dataDir, err := globalConfigDir()
	if err != nil {
		dataDir = ".chemviz"
	}
	return &Config{
		APIBaseURL:     DefaultAPIBaseURL,
		AuthScheme:     "Bearer",
		RequestTimeout: 30 * time.Second,
		DataDir:        dataDir,
		ReportDir:      ".",
		LogLevel:       "info",
	}
}

// globalConfigDir returns the global config directory path (~/.chemviz)
func globalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".chemviz"), nil
}

// Path returns the config file path (for help text).
// CHEMVIZ_CONFIG overrides the default location.
func Path() string {
	if p := os.Getenv("CHEMVIZ_CONFIG"); p != "" {
		return p
	}
	dir, err := globalConfigDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(dir, configFileName)
}

// Load reads the config file if one exists, applies environment overrides
// and validates the result
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom is Load with an explicit config file path
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No config file, defaults plus env
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the given path
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnv() {
	c.APIBaseURL = envStr("CHEMVIZ_API_URL", c.APIBaseURL)
	c.AuthScheme = envStr("CHEMVIZ_AUTH_SCHEME", c.AuthScheme)
	c.RequestTimeout = envDuration("CHEMVIZ_TIMEOUT", c.RequestTimeout)
	c.DataDir = envStr("CHEMVIZ_DATA_DIR", c.DataDir)
	c.ReportDir = envStr("CHEMVIZ_REPORT_DIR", c.ReportDir)
	c.LogLevel = envStr("LOG_LEVEL", c.LogLevel)
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url must not be empty")
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("api_base_url must be an http(s) URL, got %q", c.APIBaseURL)
	}
	if c.AuthScheme == "" {
		return fmt.Errorf("auth_scheme must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	return nil
}

// TokenPath is where the session token is persisted
func (c *Config) TokenPath() string {
	return filepath.Join(c.DataDir, "session.json")
}

// LogPath is where the client writes its log
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "chemviz.log")
}

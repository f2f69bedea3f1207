package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ServerConfig configures the development backend
type ServerConfig struct {
	Port      int
	DBPath    string
	UploadDir string
	Users     map[string]string // username -> password
	LogLevel  string
}

// LoadServer reads the development backend configuration from the environment
func LoadServer() (*ServerConfig, error) {
	dataDir := filepath.Join(os.TempDir(), "chemviz-devserver")
	cfg := &ServerConfig{
		Port:      envInt("PORT", 8000),
		DBPath:    envStr("CHEMVIZ_DB_PATH", filepath.Join(dataDir, "devserver.db")),
		UploadDir: envStr("CHEMVIZ_UPLOAD_DIR", filepath.Join(dataDir, "uploads")),
		Users:     parseUsers(envStr("CHEMVIZ_USERS", "admin:admin")),
		LogLevel:  envStr("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("CHEMVIZ_DB_PATH must not be empty")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("CHEMVIZ_UPLOAD_DIR must not be empty")
	}
	if len(c.Users) == 0 {
		return fmt.Errorf("CHEMVIZ_USERS must list at least one user:password pair")
	}
	return nil
}

// parseUsers parses "alice:pw,bob:secret"
func parseUsers(v string) map[string]string {
	users := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		name, pass, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || name == "" {
			continue
		}
		users[name] = pass
	}
	return users
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// UserConfig represents ~/.pine/config.yaml: the per-user registry of
// database contexts.
type UserConfig struct {
	CurrentContext string               `yaml:"current-context"`
	Contexts       map[string]DBContext `yaml:"contexts"`
}

// DBContext holds the connection coordinates of one named context.
type DBContext struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database"`
}

// ActiveContext returns the context to use based on the override or
// current-context, along with its name.
func (c *UserConfig) ActiveContext(override string) (string, DBContext, bool) {
	name := c.CurrentContext
	if override != "" {
		name = override
	}
	ctx, ok := c.Contexts[name]
	return name, ctx, ok
}

// ConfigDir returns the path to ~/.pine/.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pine")
}

// ConfigPath returns the path to ~/.pine/config.yaml.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LoadUserConfig reads ~/.pine/config.yaml.
func LoadUserConfig() (*UserConfig, error) {
	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = map[string]DBContext{}
	}
	return &cfg, nil
}

// SaveUserConfig writes ~/.pine/config.yaml.
func SaveUserConfig(cfg *UserConfig) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(ConfigPath(), data, 0o600)
}

// emptyUserConfig returns a usable config when none exists on disk yet.
func emptyUserConfig() *UserConfig {
	return &UserConfig{Contexts: map[string]DBContext{}}
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

const (
	DefaultServer = "http://localhost:8080"
	configEnv     = "SPLITRAIL_CONFIG"
)

// Config is what splitrailctl keeps between runs.
type Config struct {
	Server       string `yaml:"server"`
	AccessToken  string `yaml:"access_token,omitempty"`
	RefreshToken string `yaml:"refresh_token,omitempty"`
}

func (c *Config) ServerURL() string {
	if c.Server == "" {
		return DefaultServer
	}
	return c.Server
}

// ConfigPath returns $SPLITRAIL_CONFIG or ~/.splitrail/splitrailctl.yaml.
func ConfigPath() (string, error) {
	if p := os.Getenv(configEnv); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("[ConfigPath] : %v", err)
	}
	return filepath.Join(home, ".splitrail", "splitrailctl.yaml"), nil
}

// LoadConfig reads the config file. A missing file is an empty config.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("[LoadConfig] : %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("[LoadConfig] : %v", err)
	}
	return &cfg, nil
}

// SaveConfig writes the config readable by the owner only, since it holds
// session tokens.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("[SaveConfig] : %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("[SaveConfig] : %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("[SaveConfig] : %v", err)
	}
	return nil
}

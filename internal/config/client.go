package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ClientConfig configures the terminal chat client.
type ClientConfig struct {
	BackendURL   string  `toml:"backend_url"`
	PublicOrigin string  `toml:"public_origin"`
	DBPath       string  `toml:"db_path"`
	Model        string  `toml:"model"`
	Temperature  float64 `toml:"temperature"`
	MaxTokens    int     `toml:"max_tokens"`
	LogLevel     string  `toml:"log_level"`
}

// DefaultClientConfig mirrors the defaults of the web client.
func DefaultClientConfig() ClientConfig {
	dir := clientDir()
	return ClientConfig{
		BackendURL:   "http://localhost:5000",
		PublicOrigin: "http://localhost:8080",
		DBPath:       filepath.Join(dir, "sessions.db"),
		Temperature:  0.7,
		MaxTokens:    1024,
		LogLevel:     "warn",
	}
}

// DefaultClientConfigPath is ~/.config/yvi/config.toml.
func DefaultClientConfigPath() string {
	return filepath.Join(clientDir(), "config.toml")
}

func clientDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "yvi")
}

// LoadClient reads path over the defaults. A missing file is not an error.
func LoadClient(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	return cfg, nil
}

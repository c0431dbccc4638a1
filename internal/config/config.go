package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the agency server settings.
type Config struct {
	ListenPort   string `yaml:"listen_port"`
	DatabasePath string `yaml:"database_path"`
	RedisAddr    string `yaml:"redis_addr"`
	DirectoryURL string `yaml:"directory_url"`
	Agency       Agency `yaml:"agency"`
}

// Agency is this server's own directory registration triple.
type Agency struct {
	Name string `yaml:"agency_name"`
	URL  string `yaml:"url"`
	Code string `yaml:"agency_code"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenPort:   "8000",
		DatabasePath: "newswire.db",
		RedisAddr:    "localhost:6379",
		DirectoryURL: "https://newssites.pythonanywhere.com",
	}
}

// Load reads the YAML config at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.ListenPort == "" {
		return Config{}, fmt.Errorf("config: listen_port must not be empty")
	}
	if cfg.DatabasePath == "" {
		return Config{}, fmt.Errorf("config: database_path must not be empty")
	}
	return cfg, nil
}

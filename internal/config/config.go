// Package config loads server configuration from defaults, an optional
// .env file, an optional YAML file and NOVAPORT_* environment variables,
// in that order of precedence (later wins).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// HTTPConfig controls the secondary HTTP surface.
type HTTPConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	MaxRequestBytes int64         `yaml:"max_request_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// DatabaseConfig controls per-workspace SQLite connections.
type DatabaseConfig struct {
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
}

// EmbeddingsConfig selects and tunes the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "local" (deterministic, offline) or "openai".
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	OpenAIKey  string `yaml:"openai_api_key"`
	CacheSize  int    `yaml:"cache_size"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info", JSON: true},
		HTTP: HTTPConfig{
			Host:            "127.0.0.1",
			Port:            8280,
			MaxRequestBytes: 10 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			BusyTimeout:  5 * time.Second,
			MaxOpenConns: 4,
			MaxIdleConns: 2,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "local",
			Model:      "feature-hash-v1",
			Dimensions: 384,
			CacheSize:  2048,
		},
	}
}

// Load builds the effective configuration: defaults, then .env, then the
// YAML file named by NOVAPORT_CONFIG_FILE (if any), then environment
// variables, then validation.
func Load() (*Config, error) {
	// Missing .env is fine; explicit files are not.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path := os.Getenv("NOVAPORT_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("NOVAPORT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("NOVAPORT_LOG_JSON"); v != "" {
		c.Log.JSON = v != "false" && v != "0"
	}
	if v := os.Getenv("NOVAPORT_HTTP_HOST"); v != "" {
		c.HTTP.Host = v
	}
	if v := os.Getenv("NOVAPORT_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTP.Port = port
		}
	}
	if v := os.Getenv("NOVAPORT_DB_BUSY_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Database.BusyTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("NOVAPORT_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("NOVAPORT_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("NOVAPORT_EMBEDDINGS_DIMENSIONS"); v != "" {
		if d, err := strconv.Atoi(v); err == nil {
			c.Embeddings.Dimensions = d
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Embeddings.OpenAIKey = v
	}
	if v := os.Getenv("NOVAPORT_EMBEDDINGS_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Embeddings.CacheSize = n
		}
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port: %d", c.HTTP.Port)
	}
	if c.HTTP.MaxRequestBytes <= 0 {
		return fmt.Errorf("max_request_bytes must be positive")
	}
	switch c.Embeddings.Provider {
	case "local":
	case "openai":
		if c.Embeddings.OpenAIKey == "" {
			return fmt.Errorf("embeddings provider 'openai' requires OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown embeddings provider: %q", c.Embeddings.Provider)
	}
	if c.Embeddings.Dimensions <= 0 {
		return fmt.Errorf("embeddings dimensions must be positive")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("max_open_conns must be at least 1")
	}
	return nil
}

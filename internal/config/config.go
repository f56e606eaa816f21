// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aryannaik/embedding-compare/internal/embeddings"
	"github.com/aryannaik/embedding-compare/internal/keystore"
)

type Config struct {
	// Host defaults to loopback; the page prefills the cached API key.
	Host      string
	Port      string
	StaticDir string

	EmbeddingBaseURL string
	EmbeddingModel   string
	EmbeddingTimeout time.Duration

	KeystoreBackend string
	KeystorePath    string
	RedisURL        string

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and the environment. Missing values fall back
// to defaults; malformed ones are an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	timeout, err := getEnvAsDuration("EMBEDDING_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:      envOrDefault("HOST", "127.0.0.1"),
		Port:      envOrDefault("PORT", "8990"),
		StaticDir: os.Getenv("STATIC_DIR"),

		EmbeddingBaseURL: envOrDefault("EMBEDDING_BASE_URL", embeddings.DefaultBaseURL),
		EmbeddingModel:   envOrDefault("EMBEDDING_MODEL", embeddings.DefaultModel),
		EmbeddingTimeout: timeout,

		KeystoreBackend: strings.ToLower(envOrDefault("KEYSTORE_BACKEND", keystore.BackendBolt)),
		KeystorePath:    envOrDefault("KEYSTORE_PATH", "data/keystore.db"),
		RedisURL:        envOrDefault("REDIS_URL", "redis://localhost:6379/0"),

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.EmbeddingTimeout <= 0 {
		return errors.New("EMBEDDING_TIMEOUT must be positive")
	}

	switch c.KeystoreBackend {
	case keystore.BackendBolt, keystore.BackendFile:
		if c.KeystorePath == "" {
			return fmt.Errorf("KEYSTORE_PATH is required for the %s keystore", c.KeystoreBackend)
		}
	case keystore.BackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis keystore")
		}
	case keystore.BackendMemory:
	default:
		return fmt.Errorf("KEYSTORE_BACKEND %q is not one of bolt, redis, file, memory", c.KeystoreBackend)
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT %q is not one of json, console", c.LogFormat)
	}

	return nil
}

// KeystoreOptions maps the keystore settings onto keystore.Options.
func (c *Config) KeystoreOptions() keystore.Options {
	return keystore.Options{
		Backend:  c.KeystoreBackend,
		Path:     c.KeystorePath,
		RedisURL: c.RedisURL,
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

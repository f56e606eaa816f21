// Package keystore persists small string values, such as the cached API key,
// behind a backend-agnostic interface.
package keystore

import (
	"context"
	"fmt"
)

// APIKey is the key under which the embedding provider credential is cached.
const APIKey = "OPENAI_API_KEY"

// Backend names accepted by Open.
const (
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Store is a string key-value store. Get reports ok=false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Path is the database file for the bolt backend and the JSON file for
	// the file backend.
	Path string
	// RedisURL is a redis:// URL or a plain host:port address.
	RedisURL string
}

// Open returns the store for opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendBolt, "":
		return OpenBolt(opts.Path)
	case BackendRedis:
		return OpenRedis(ctx, opts.RedisURL)
	case BackendFile:
		return NewFileStore(opts.Path), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown keystore backend %q", opts.Backend)
	}
}

// Package prefs provides durable client-side storage for user preferences
// such as the selected UI locale.
package prefs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Backend names a storage implementation
type Backend string

// Supported backends
const (
	BackendFile     Backend = "file"
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// Store persists string preferences by key
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Options selects and configures a backend
type Options struct {
	Backend       Backend
	Path          string // file backend
	DatabaseURL   string // postgres backend
	RedisAddr     string // redis backend
	RedisPassword string
	RedisDB       int
}

// Open returns the store for opts.Backend. An empty backend means BackendFile.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		path := opts.Path
		if path == "" {
			var err error
			path, err = DefaultPath()
			if err != nil {
				return nil, err
			}
		}
		return NewFileStore(path), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendPostgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres preferences backend requires a database URL")
		}
		return NewPostgresStore(ctx, opts.DatabaseURL)
	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis preferences backend requires an address")
		}
		return NewRedisStore(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	default:
		return nil, fmt.Errorf("unknown preferences backend %q", opts.Backend)
	}
}

// DefaultPath returns the per-user preferences file location
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(dir, "resume-matcher", "preferences.json"), nil
}

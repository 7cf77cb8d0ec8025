// Package badger provides the BadgerDB-backed notebook store.
package badger

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Config configures BadgerDB storage.
type Config struct {
	// Path is the database directory.
	Path string

	// InMemory runs the database without touching disk. Used in tests.
	InMemory bool

	// KeyPrefix is added to all keys.
	KeyPrefix string
}

// DefaultConfig returns a configuration for the given directory.
func DefaultConfig(path string) Config {
	return Config{Path: path}
}

// Option configures BadgerDB storage.
type Option func(*Config)

// WithInMemory runs the database in memory.
func WithInMemory() Option {
	return func(c *Config) {
		c.InMemory = true
	}
}

// WithKeyPrefix sets a key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *Config) {
		c.KeyPrefix = prefix
	}
}

// openDB opens the database with logging silenced.
func openDB(cfg Config) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

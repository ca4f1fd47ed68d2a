// Package storage keeps persisted world units keyed by their storage key.
package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("storage: key not found")
	ErrInvalidKey     = errors.New("storage: invalid key")
	ErrUnknownBackend = errors.New("storage: unknown backend")
)

// Storage stores opaque blobs. Implementations are safe for concurrent use.
type Storage interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists stored keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
)

// Options selects and configures a backend.
type Options struct {
	Backend Backend
	// Dir is the save directory of the file backend.
	Dir string
	// Path is the database file of the sqlite backend.
	Path string
}

// Open creates the storage selected by opts.
func Open(opts Options) (Storage, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStorage(opts.Dir)
	case BackendSQLite:
		return OpenSQLite(opts.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	if key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

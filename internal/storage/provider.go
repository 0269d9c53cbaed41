// Package storage stores the files behind client documents.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("storage: object not found")

// Info describes a stored object.
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Provider is the interface for document file operations. Keys are
// slash-separated relative paths.
type Provider interface {
	// Put writes the content of r under key, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	// Get opens the object under key. The caller closes the reader.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Delete removes the object under key.
	Delete(ctx context.Context, key string) error
	// List returns every object whose key starts with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Info, error)
}

// Package objectstore abstracts where uploaded media bytes live: a local
// directory for development and self-hosting, or a MinIO/S3 bucket in
// production. Media records in the store reference objects by key.
package objectstore

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when no object exists under the requested key.
var ErrNotFound = errors.New("object not found")

// Store reads and writes media objects by key.
type Store interface {
	// Put stores an object. Size must match the reader's length; backends
	// use it to avoid buffering.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Get opens an object for reading. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a URL a client can fetch the object from for the given
	// duration. Backends without presigning return a server-relative path.
	URL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

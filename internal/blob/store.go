// Package blob implements flat, opaque byte storage addressed by generated
// keys unrelated to any user-visible name. Three backends are provided:
// a local filesystem directory, S3-compatible object storage and an
// embedded BadgerDB.
//
// The metadata database is the sole arbiter of which blobs are live; a blob
// with no corresponding row is an orphan to be garbage-collected out of
// band.
package blob

import (
	"context"
	"errors"
	"io"
)

// ErrBlobNotFound reports that no blob exists under the requested key.
// Get returns it; Delete is idempotent and does not.
var ErrBlobNotFound = errors.New("blob not found")

// Store is the byte-storage contract consumed by the file and share
// services. Keys are opaque strings chosen by the caller; writing an
// existing key overwrites it, which is practically unreachable given key
// generation entropy.
type Store interface {
	// Put writes size bytes from r under key.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Get returns a reader for the blob stored under key. The caller must
	// close it. Returns ErrBlobNotFound if no such blob exists.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob under key if present. Deleting a missing
	// blob is not an error.
	Delete(ctx context.Context, key string) error
}

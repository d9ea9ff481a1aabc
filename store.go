package mediafold

import (
	"context"
	"io"
)

// Store is a client of one backing object store reachable through a
// remote-authoring protocol. Implementations cover the WebDAV-style remote
// store and an in-memory store for tests.
//
// Batch mutations report per-key outcomes rather than failing the whole
// batch; callers must be able to retry only the failed subset. A returned
// error is reserved for transport-level failures that prevented the batch
// from being attempted at all.
type Store interface {
	// List returns the immediate (or recursively expanded) children of a
	// directory prefix. Returns ErrNotFound if the directory does not
	// exist and ErrUnauthorized if write credentials are rejected.
	List(ctx context.Context, dirKey string, recursive bool) (DirectoryListing, error)

	// Get opens an object for reading and reports its content type.
	// Returns ErrNotFound if the key does not exist. The caller closes
	// the returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)

	// Put writes an object, creating intermediate directories as needed.
	// Returns ErrConflict if the underlying store rejects the write and
	// ErrUnauthorized if credentials are rejected.
	Put(ctx context.Context, key string, content io.Reader, contentType string) error

	// Copy copies (or moves, when deleteSource) each mapping
	// independently, reporting a per-key result.
	Copy(ctx context.Context, mappings []FileKeyMapping, deleteSource bool) ([]FileActionResult, error)

	// Delete removes each key independently, reporting a per-key result.
	Delete(ctx context.Context, keys []string) ([]FileActionResult, error)
}

package reader

import (
	"context"
	"io"
)

// BlobStore is the minimal object-store surface the delta-log walker
// needs: list keys under a prefix, and open one for reading. The only
// implementation is localblob (plain filesystem, used for development,
// tests and cmd/server); there is no object-store-backed BlobStore.
type BlobStore interface {
	// List returns every key under prefix, sorted ascending.
	List(ctx context.Context, prefix string) ([]string, error)

	// Open returns a reader for the object at key. Callers must Close it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

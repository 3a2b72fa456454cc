// Package signer turns object-store URIs into time-limited HTTPS URLs a
// Delta Sharing client can fetch directly. Grounded on original_source's
// src/signer/mod.rs (the UrlSigner trait) and src/signer/registry.rs (a
// scheme -> signer registry falling back to a noop signer), re-expressed
// the way the teacher selects a backend by name in
// internal/storage/factory.go (storage.NewAdapter(name)).
package signer

import (
	"context"
	"time"
)

// SignedURL is a presigned URL with a validity window.
type SignedURL struct {
	URL       string
	ExpiresAt time.Time
}

// Signer derives a presigned URL from an object-store path. Implementations
// are scoped to one URI scheme (s3://, gs://, abfss://).
type Signer interface {
	SignURL(ctx context.Context, path string, ttl time.Duration) (SignedURL, error)
}

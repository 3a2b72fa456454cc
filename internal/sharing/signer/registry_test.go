package signer

import (
	"context"
	"testing"
	"time"
)

type fakeSigner struct{ called string }

func (f *fakeSigner) SignURL(_ context.Context, path string, _ time.Duration) (SignedURL, error) {
	f.called = path
	return SignedURL{URL: "https://signed/" + path}, nil
}

func TestForPathFallsBackToNoop(t *testing.T) {
	r := NewRegistry()
	s := r.ForPath("s3://bucket/key")
	if _, ok := s.(Noop); !ok {
		t.Fatalf("expected Noop for an unregistered scheme, got %T", s)
	}
}

func TestLookupRejectsUnregisteredScheme(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("s3://bucket/key"); ok {
		t.Fatal("expected Lookup to report no signer for an unregistered scheme")
	}
}

func TestLookupFindsRegisteredScheme(t *testing.T) {
	r := NewRegistry()
	fake := &fakeSigner{}
	r.Register("s3", fake)

	s, ok := r.Lookup("s3://bucket/key")
	if !ok {
		t.Fatal("expected Lookup to find the registered s3 signer")
	}
	if s != fake {
		t.Fatalf("expected Lookup to return the registered signer, got %T", s)
	}
}

func TestLookupAllowsSchemelessLocalPath(t *testing.T) {
	r := NewRegistry()
	r.Register("s3", &fakeSigner{})

	s, ok := r.Lookup("/local/path/with/no/scheme")
	if !ok {
		t.Fatal("expected Lookup to pass through a schemeless local-filesystem path")
	}
	if _, isNoop := s.(Noop); !isNoop {
		t.Fatalf("expected Noop for a schemeless path, got %T", s)
	}
}

func TestLookupRejectsUnparsablePath(t *testing.T) {
	r := NewRegistry()
	r.Register("s3", &fakeSigner{})

	if _, ok := r.Lookup("://not a url"); ok {
		t.Fatal("expected Lookup to reject an unparsable path")
	}
}

func TestRegistryDispatchesByScheme(t *testing.T) {
	r := NewRegistry()
	fake := &fakeSigner{}
	r.Register("s3", fake)

	s := r.ForPath("s3://bucket/key/path")
	signed, err := s.SignURL(context.Background(), "s3://bucket/key/path", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.called == "" {
		t.Fatalf("expected the registered signer to be invoked")
	}
	if signed.URL == "" {
		t.Fatalf("expected a signed URL")
	}
}

func TestNoopReturnsPathUnchanged(t *testing.T) {
	s := Noop{}
	signed, err := s.SignURL(context.Background(), "file:///tmp/x", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signed.URL != "file:///tmp/x" {
		t.Fatalf("expected passthrough, got %q", signed.URL)
	}
}

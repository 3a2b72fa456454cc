package signer

import (
	"net/url"
	"strings"
)

// Registry maps an object-store URI scheme to the Signer that knows how to
// presign it. Get and ForPath resolve a scheme with no registered Signer
// to Noop; Lookup instead reports ok=false for such a scheme, which the
// handlers turn into an UnsupportedOperation response.
type Registry struct {
	byScheme map[string]Signer
}

// NewRegistry returns an empty registry; register schemes with Register.
func NewRegistry() *Registry {
	return &Registry{byScheme: make(map[string]Signer)}
}

// Register associates scheme (e.g. "s3", "gs", "abfss") with signer.
func (r *Registry) Register(scheme string, s Signer) {
	r.byScheme[strings.ToLower(scheme)] = s
}

// Get returns the signer registered for scheme, or Noop if none is.
func (r *Registry) Get(scheme string) Signer {
	if s, ok := r.byScheme[strings.ToLower(scheme)]; ok {
		return s
	}
	return Noop{}
}

// ForPath extracts the scheme from a storage URI and returns its signer,
// falling back to Noop for an unregistered scheme. Callers that must
// reject an unregistered scheme instead of silently serving an unsigned
// URL (spec.md §4.4/§4.6: "scheme not registered" is an UnsupportedOperation,
// not a successful response) should use Lookup.
func (r *Registry) ForPath(path string) Signer {
	u, err := url.Parse(path)
	if err != nil || u.Scheme == "" {
		return Noop{}
	}
	return r.Get(u.Scheme)
}

// Lookup extracts the scheme from a storage URI and reports whether it is
// usable: a schemeless path (local filesystem, relative path) always
// passes through Noop unchanged, matching spec's "in-test and
// file-system paths pass through unchanged" carve-out; a path with a
// scheme that has no registered Signer reports ok=false so handler-level
// callers can reject it with UnsupportedOperation rather than silently
// falling back to Noop.
func (r *Registry) Lookup(path string) (Signer, bool) {
	u, err := url.Parse(path)
	if err != nil {
		return nil, false
	}
	if u.Scheme == "" {
		return Noop{}, true
	}
	s, ok := r.byScheme[strings.ToLower(u.Scheme)]
	return s, ok
}

// Package state wires the sharing server's dependencies (catalog, table
// readers, signer registry) into one struct injected into Gin handlers,
// generalized from the teacher's internal/handlers wiring the DB/adapter/
// config into package-level singletons (internal/database.Get/Init,
// router.go's c.Set("storage_adapter", adapter)) into one explicit,
// constructor-built struct instead of globals.
package state

import (
	"time"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/catalog"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/reader"
	"github.com/oreo-io/delta-sharing-server/internal/sharing/signer"
)

// State is the process-wide, immutable set of dependencies every sharing
// handler needs. Built once at startup and shared by reference.
type State struct {
	Catalog catalog.Catalog

	// Readers is keyed by a table's Format (e.g. "DELTA"); handlers look
	// up the reader for a table's declared format and answer 501 via
	// apperr.Unsupported when none is registered.
	Readers map[string]reader.TableReader

	Signers *signer.Registry

	// SignedURLTTL is how long presigned file URLs remain valid.
	SignedURLTTL time.Duration
}

// New builds a State from its dependencies. readers maps a table format
// string (case-sensitive, matched against model.Table.Format) to the
// TableReader that can read it.
func New(cat catalog.Catalog, readers map[string]reader.TableReader, signers *signer.Registry, ttl time.Duration) *State {
	return &State{Catalog: cat, Readers: readers, Signers: signers, SignedURLTTL: ttl}
}

// ReaderFor returns the TableReader registered for format, or nil if none
// is registered.
func (s *State) ReaderFor(format string) reader.TableReader {
	return s.Readers[format]
}

// Package reader defines the table-reading contract: given a table's
// storage path, produce the protocol/metadata/file-action snapshot a
// Delta Sharing response is built from. Grounded on original_source's
// src/reader/mod.rs (the TableReader trait and its Version/VersionRange
// request types), re-expressed with context.Context and explicit error
// returns the way the teacher's internal/storage.StorageAdapter interface
// is built.
package reader

import (
	"context"

	"github.com/oreo-io/delta-sharing-server/internal/sharing/model"
)

// TableReader reads a Delta Lake table's transaction log and resolves it
// into the data the response writers serialise.
type TableReader interface {
	// ResolveVersion turns a version selector into a concrete version
	// number, validating that it exists.
	ResolveVersion(ctx context.Context, storagePath string, selector model.VersionSelector) (uint64, error)

	// Snapshot returns the protocol, metadata and live file set as of the
	// selected version.
	Snapshot(ctx context.Context, storagePath string, selector model.VersionSelector) (model.TableSnapshot, error)

	// Changes returns the sequence of add/remove/cdc actions across the
	// requested version range, in version order.
	Changes(ctx context.Context, storagePath string, versionRange model.VersionRange) (model.TableSnapshot, error)
}
